package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/learn/tests/controller"
	"wasitku_backend/internals/features/learn/tests/repository"
	"wasitku_backend/internals/features/learn/tests/service"
)

// TestsUserRoutes expects r to be mounted under /api/u with auth applied.
func TestsUserRoutes(r fiber.Router, db *gorm.DB) {
	svc := service.NewTestService(repository.NewTestRepository(db))
	ctl := controller.NewTestController(svc)

	g := r.Group("/tests")
	g.Get("/", ctl.List)                     // GET /api/u/tests
	g.Get("/:slug", ctl.GetBySlug)           // GET /api/u/tests/:slug
	g.Get("/:slug/questions", ctl.Questions) // GET /api/u/tests/:slug/questions
}
