package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/configs"
	notifrepo "wasitku_backend/internals/features/home/notifications/repository"
	notifservice "wasitku_backend/internals/features/home/notifications/service"
	"wasitku_backend/internals/features/realtime/authevents"
	"wasitku_backend/internals/features/users/profiles/controller"
	"wasitku_backend/internals/features/users/profiles/repository"
	"wasitku_backend/internals/features/users/profiles/service"
)

func ProfileUserRoutes(user fiber.Router, db *gorm.DB, events authevents.Publisher) {
	reminders := notifservice.NewNotificationService(notifrepo.NewNotificationRepository(db), configs.AppLocation)
	svc := service.NewProfileService(repository.NewProfileRepository(db), reminders, events)
	ctl := controller.NewProfileController(svc)

	p := user.Group("/profile")
	p.Get("/", ctl.Get)
	p.Patch("/", ctl.Patch)
	p.Put("/username", ctl.SetUsername)
	p.Get("/username-available", ctl.UsernameAvailable)
	p.Post("/last-login", ctl.LastLogin)
}
