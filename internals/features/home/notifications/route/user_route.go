package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	"wasitku_backend/internals/features/home/notifications/controller"
	"wasitku_backend/internals/features/home/notifications/repository"
	"wasitku_backend/internals/features/home/notifications/service"
)

func NotificationUserRoutes(user fiber.Router, db *gorm.DB) {
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), configs.AppLocation)
	ctrl := controller.NewNotificationController(svc)

	// static paths before /:id
	n := user.Group("/notifications")
	n.Get("/", ctrl.List)
	n.Get("/active", ctrl.Active)
	n.Get("/unread-count", ctrl.UnreadCount)
	n.Patch("/read-all", ctrl.MarkAllRead)
	n.Delete("/profile-reminder", ctrl.DeleteProfileReminder)
	n.Patch("/:id/read", ctrl.MarkRead)
	n.Patch("/:id/remind-later", ctrl.RemindLater)
	n.Patch("/:id/dismiss", ctrl.Dismiss)
}
