package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"

	"wasitku_backend/internals/configs"
	database "wasitku_backend/internals/databases"
	notificationScheduler "wasitku_backend/internals/features/home/notifications/scheduler"
	"wasitku_backend/internals/features/realtime/authevents"
	authScheduler "wasitku_backend/internals/features/users/auth/scheduler"
	authService "wasitku_backend/internals/features/users/auth/service"
	helper "wasitku_backend/internals/helpers"
	middlewares "wasitku_backend/internals/middlewares"
	routes "wasitku_backend/internals/route"
	"wasitku_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.ErrorHandler,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})
	middlewares.SetupMiddlewares(app)

	// DB connect + pool + schema
	database.ConnectDB()
	database.TunePool()
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("[DB] migrate failed: %v", err)
	}
	database.WarmUpQueries()

	if configs.GetEnvBool("SEED", false) {
		seeds.RunAllSeeds(database.DB)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// auth event hub on its own listener
	hub := authevents.NewHub()
	go hub.Run(rootCtx)
	wsHandler := authevents.NewHandler(hub, authService.VerifyAccessToken(database.DB), configs.CorsAllowOrigins)
	wsServer := &http.Server{
		Addr:              ":" + configs.GetEnv("WS_PORT", "3001"),
		Handler:           authevents.NewRouter(wsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[WS] listening on %s", wsServer.Addr)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[WS] server error: %v", err)
		}
	}()

	// scheduler after the DB is ready
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if err := authScheduler.RegisterTokenCleanup(c, database.DB); err != nil {
		log.Fatalf("[CRON] token cleanup: %v", err)
	}
	if err := notificationScheduler.RegisterReminderSweep(c, database.DB); err != nil {
		log.Fatalf("[CRON] reminder sweep: %v", err)
	}
	c.Start()

	routes.SetupRoutes(app, database.DB, hub)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")
	go func() {
		log.Printf("[INFO] listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	<-c.Stop().Done()
	_ = app.ShutdownWithContext(ctx)
	_ = wsServer.Shutdown(ctx)
	stop()

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
