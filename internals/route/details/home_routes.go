package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	NotificationRoutes "wasitku_backend/internals/features/home/notifications/route"
)

// Example: /api/u/notifications/active
func HomeUserRoutes(api fiber.Router, db *gorm.DB) {
	NotificationRoutes.NotificationUserRoutes(api, db)
}

// Example: /api/a/notifications
func HomeAdminRoutes(api fiber.Router, db *gorm.DB) {
	NotificationRoutes.NotificationAdminRoutes(api, db)
}
