package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/truber-app/truber-backend/internal/config"
	"github.com/truber-app/truber-backend/internal/db"
	"github.com/truber-app/truber-backend/internal/events"
	"github.com/truber-app/truber-backend/internal/handlers"
	"github.com/truber-app/truber-backend/internal/middleware"
	"github.com/truber-app/truber-backend/internal/services/account"
	"github.com/truber-app/truber-backend/internal/services/catalog"
	"github.com/truber-app/truber-backend/internal/services/jobrequest"
	"github.com/truber-app/truber-backend/internal/services/profile"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeMin) * time.Minute,
		LogLevel:        cfg.DBLogLevel,
	})
	if err != nil {
		log.Fatal(err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatal(err)
	}

	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	var publisher events.Publisher = events.Noop{}
	if rdb := events.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis not reachable, events will be dropped until it is: %v", err)
		} else {
			log.Println("Redis connected, publishing job-request events to", cfg.EventsChannel)
		}
		publisher = events.NewRedisPublisher(rdb, cfg.EventsChannel)
		defer rdb.Close()
	}

	app := fiber.New(fiber.Config{
		AppName:      "truber-api",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: !cfg.AllowsAnyOrigin(),
	}))
	app.Use(middleware.OptionalJWT(cfg.JWTSecret))

	(&handlers.HealthHandler{DB: sqlDB}).Routes(app)
	(&handlers.AuthHandler{
		Accounts:     account.NewAccountService(gdb),
		JWTSecret:    cfg.JWTSecret,
		Expires:      cfg.JWTExpiresMin,
		SecureCookie: cfg.CookieSecure,
	}).Routes(app)
	handlers.NewCatalogHandler(catalog.NewCatalogService(gdb)).Routes(app)
	handlers.NewProfileHandler(profile.NewProfileService(gdb)).Routes(app)
	handlers.NewJobRequestHandler(jobrequest.NewJobRequestService(gdb, publisher)).Routes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal(err)
	}
	_ = sqlDB.Close()
}
