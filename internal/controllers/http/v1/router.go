package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	"weather-avf/internal/services/weather"
	"weather-avf/pkg/logger"

	_ "weather-avf/docs"
)

const DefaultBasePath = "/weather-app/"

type routes struct {
	service  *weather.WeatherService
	basePath string
	l        *logger.Logger
}

// NewRouter registers the dashboard page, the JSON API, API docs and, when
// registry is not nil, the Prometheus endpoint.
func NewRouter(
	app *fiber.App,
	weatherService *weather.WeatherService,
	basePath string,
	registry *prometheus.Registry,
	l *logger.Logger,
) {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}

	r := &routes{
		service:  weatherService,
		basePath: basePath,
		l:        l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return c.Status(fiber.ErrInternalServerError.Code).JSON(fiber.Map{"error": "Failed to read Swagger documentation"})
		}

		c.Set("Content-Type", "application/json")
		return c.SendString(doc)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	if registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// Dashboard page
	if basePath != "/" {
		app.Get("/", func(c *fiber.Ctx) error {
			return c.Redirect(basePath, fiber.StatusFound)
		})
	}
	app.Get(basePath, r.handlePage)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/airports", r.handleAirports)
	api.Get("/dashboard", r.handleDashboard)
}
