package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	"wasitku_backend/internals/features/home/notifications/controller"
	"wasitku_backend/internals/features/home/notifications/repository"
	"wasitku_backend/internals/features/home/notifications/service"
)

// NotificationAdminRoutes expects api to already carry the admin role guard.
func NotificationAdminRoutes(api fiber.Router, db *gorm.DB) {
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), configs.AppLocation)
	ctrl := controller.NewNotificationController(svc)

	api.Post("/notifications", ctrl.Create)
}
