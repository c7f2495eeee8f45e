package app

import (
	"time"

	"quiz-forge/internal/config"
	"quiz-forge/internal/handler"
	"quiz-forge/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// NewServer builds the fiber app serving the generation API under /api.
func NewServer(c *Components, cfg *config.Config) *fiber.App {
	generationHandler := handler.NewGenerationHandler(
		c.Service,
		c.Repository,
		c.Extractor,
		c.Client.ModelID(),
	)

	server := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	server.Use(recover.New())
	server.Use(requestid.New(requestid.Config{Header: middleware.RequestIDHeader}))
	server.Use(middleware.RequestLogger())
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + middleware.RequesterIDHeader,
		MaxAge:       300,
	}))

	apiGroup := server.Group("/api",
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.RequesterIdentity(cfg.RateLimit.ByIP),
	)
	generationHandler.RegisterRoutes(apiGroup)

	return server
}
