package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/realtime/authevents"
	ProfileRoutes "wasitku_backend/internals/features/users/profiles/route"
)

// Example: /api/u/profile
func UserRoutes(api fiber.Router, db *gorm.DB, events authevents.Publisher) {
	ProfileRoutes.ProfileUserRoutes(api, db, events)
}
