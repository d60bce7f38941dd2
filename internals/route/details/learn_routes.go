package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	AttemptRoutes "wasitku_backend/internals/features/learn/attempts/route"
	TestRoutes "wasitku_backend/internals/features/learn/tests/route"
)

// Example: /api/u/tests/offside-basics/attempts/current
func LearnUserRoutes(api fiber.Router, db *gorm.DB) {
	TestRoutes.TestsUserRoutes(api, db)
	AttemptRoutes.AttemptsUserRoutes(api, db)
}
