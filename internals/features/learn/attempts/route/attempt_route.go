package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	notifrepo "wasitku_backend/internals/features/home/notifications/repository"
	notifservice "wasitku_backend/internals/features/home/notifications/service"
	"wasitku_backend/internals/features/learn/attempts/controller"
	"wasitku_backend/internals/features/learn/attempts/repository"
	"wasitku_backend/internals/features/learn/attempts/service"
	testrepo "wasitku_backend/internals/features/learn/tests/repository"
	testservice "wasitku_backend/internals/features/learn/tests/service"
)

// AttemptsUserRoutes expects r to be mounted under /api/u with auth applied.
func AttemptsUserRoutes(r fiber.Router, db *gorm.DB) {
	tests := testservice.NewTestService(testrepo.NewTestRepository(db))
	notifier := notifservice.NewNotificationService(notifrepo.NewNotificationRepository(db), configs.AppLocation)
	svc := service.NewAttemptService(repository.NewAttemptRepository(db), tests, notifier)
	ctl := controller.NewAttemptController(svc)

	// per test
	r.Post("/tests/:slug/attempts/current", ctl.Current)
	r.Get("/tests/:slug/attempts", ctl.ListForTest)

	// per attempt
	a := r.Group("/attempts")
	a.Get("/:id/answers", ctl.ListAnswers)
	a.Put("/:id/answers/:question_id", ctl.UpsertAnswer)
	a.Post("/:id/submit", ctl.Submit)
	a.Get("/:id/review", ctl.Review)
}
