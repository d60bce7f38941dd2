package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/realtime/authevents"
	authRoute "wasitku_backend/internals/features/users/auth/route"
)

func AuthRoutes(app *fiber.App, db *gorm.DB, events authevents.Publisher) {
	authRoute.AuthRoutes(app, db, events)
}
