package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/himilo-dev/homeman-api/internal/config"
	"github.com/himilo-dev/homeman-api/internal/db"
	"github.com/himilo-dev/homeman-api/internal/handlers"
	"github.com/himilo-dev/homeman-api/internal/logger"
	"github.com/himilo-dev/homeman-api/internal/metrics"
	"github.com/himilo-dev/homeman-api/internal/middleware"
	"github.com/himilo-dev/homeman-api/internal/realtime"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := logger.Init(cfg.AppEnv, cfg.LogLevel); err != nil {
		panic(err)
	}
	log := zap.L()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if rdb != nil {
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal("redis configured but unreachable", zap.Error(err))
		}
	}

	hub := realtime.NewHub()
	go hub.Run()

	notifier := realtime.NewNotifier(hub, rdb)
	go notifier.Run(context.Background())

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))
	app.Use(logger.RequestLogger())
	app.Use(metrics.Middleware())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is running...")
	})
	app.Get("/metrics", metrics.Handler())

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
		Redis:     rdb,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	adminH := handlers.NewAdminHandler(gdb)
	bookingH := handlers.NewBookingHandler(gdb, notifier)
	analyticsH := handlers.NewAnalyticsHandler(gdb)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)

	// protected (bearer JWT)
	protected := api.Group("/", middleware.RequireAuth(cfg.JWTSecret, rdb))

	protected.Post("/auth/logout", authH.Logout)

	// any authenticated role; the handler dispatches admin vs client view
	protected.Get("/admin/dashboard", adminH.Dashboard)

	// admin only
	protected.Patch("/admin/verify/:id",
		middleware.RequireRoles("admin"), adminH.VerifyPro)
	protected.Patch("/admin/suspend/:id",
		middleware.RequireRoles("admin"), adminH.ToggleSuspension)
	protected.Delete("/admin/user/:id",
		middleware.RequireRoles("admin"), adminH.DeleteUser)
	protected.Get("/admin/analytics",
		middleware.RequireRoles("admin"), analyticsH.Get)

	// bookings
	protected.Post("/bookings/create",
		middleware.RequireRoles("client"), bookingH.Create)
	protected.Get("/bookings/my-bookings", bookingH.MyBookings)
	protected.Patch("/bookings/update-status",
		middleware.RequireRoles("pro"), bookingH.UpdateStatus)
	protected.Post("/bookings/rate",
		middleware.RequireRoles("client"), bookingH.Rate)

	// notification socket, token via query param
	app.Get("/ws/notifications", websocket.New(realtime.ServeWS(hub, cfg.JWTSecret)))

	log.Fatal("server stopped", zap.Error(app.Listen(":"+cfg.AppPort)))
}
