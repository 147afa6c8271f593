package server

import (
	"time"

	"github.com/fika/fika-prep/internal/controllers"
	"github.com/fika/fika-prep/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerDependencies struct {
	ThemeController *controllers.ThemeController

	// Metrics is served on /metrics when set.
	Metrics *prometheus.Registry
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "fika-prep",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "fika-prep",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	if deps.Metrics != nil {
		router.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	router.Get("/themes", deps.ThemeController.ListThemes)
	router.Get("/themes/:theme", deps.ThemeController.GetTheme)
	router.Get("/buckets", deps.ThemeController.ListBuckets)
	router.Get("/labels/:label", deps.ThemeController.GetLabel)

	return router
}
