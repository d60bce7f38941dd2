package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/realtime/authevents"
	controller "wasitku_backend/internals/features/users/auth/controller"
	"wasitku_backend/internals/features/users/auth/service"
	rateLimiter "wasitku_backend/internals/middlewares"
	authMiddleware "wasitku_backend/internals/middlewares/auth"
)

// AuthRoutes mounts /api/auth. Public endpoints sit behind the per-action
// limiters, the rest behind the access-token middleware.
func AuthRoutes(app *fiber.App, db *gorm.DB, events authevents.Publisher) {
	authController := controller.NewAuthController(db, events, service.LogMailer{})

	app.Use(rateLimiter.GlobalRateLimiter())

	pub := app.Group("/api/auth")
	pub.Post("/register", rateLimiter.RegisterRateLimiter(), authController.Register)
	pub.Get("/confirm", authController.ConfirmEmail)
	pub.Post("/login", rateLimiter.LoginRateLimiter(), authController.Login)
	pub.Post("/login-google", rateLimiter.LoginRateLimiter(), authController.LoginGoogle)
	pub.Post("/refresh-token", authController.RefreshToken)
	pub.Post("/forgot-password", rateLimiter.ForgotPasswordRateLimiter(), authController.ForgotPassword)
	pub.Post("/recover", rateLimiter.ForgotPasswordRateLimiter(), authController.Recover)

	protected := app.Group("/api/auth", authMiddleware.AuthMiddleware(db))
	protected.Post("/logout", authController.Logout)
	protected.Put("/password", authController.UpdatePassword)
	protected.Get("/session", authController.Session)
}
