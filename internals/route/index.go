package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/constants"
	"wasitku_backend/internals/features/realtime/authevents"
	authMiddleware "wasitku_backend/internals/middlewares/auth"
	routeDetails "wasitku_backend/internals/route/details"
)

var startTime time.Time

// SetupRoutes mounts /api/auth, the signed-in group /api/u and the admin
// group /api/a. events receives auth-state changes for the websocket hub.
func SetupRoutes(app *fiber.App, db *gorm.DB, events authevents.Publisher) {
	startTime = time.Now()

	BaseRoutes(app, db)

	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, db, events)

	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api/u", authMiddleware.AuthMiddleware(db))

	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a",
		authMiddleware.AuthMiddleware(db),
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("the admin API"), constants.AdminOnly),
	)

	log.Println("[INFO] Mounting user routes...")
	routeDetails.UserRoutes(private, db, events)

	log.Println("[INFO] Mounting learn routes...")
	routeDetails.LearnUserRoutes(private, db)

	log.Println("[INFO] Mounting home routes...")
	routeDetails.HomeUserRoutes(private, db)
	routeDetails.HomeAdminRoutes(admin, db)
}
