package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/subbu1904/CoinTrackBack/internal/config"
	"github.com/subbu1904/CoinTrackBack/internal/database"
	"github.com/subbu1904/CoinTrackBack/internal/routes"
	"github.com/subbu1904/CoinTrackBack/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	if err := services.EnsureDefaultAdmin(
		context.Background(),
		database.DB,
		cfg.DefaultAdminEmail,
		cfg.DefaultAdminPassword,
	); err != nil {
		log.Printf("Failed to seed default admin: %v", err)
	}

	app := fiber.New()

	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))
	} else {
		app.Use(cors.New())
	}
	if cfg.AppEnv != "test" {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, database.DB)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
