package api

import (
	"finhealth/docs"
	"finhealth/internal/api/handlers"
	"finhealth/pkg/middleware"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	BodyLimit int
	// Registerer receives the HTTP request metrics; Gatherer backs /metrics.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Tracing    bool
}

func SetupRouter(
	assessmentHandler *handlers.AssessmentHandler,
	settingsHandler *handlers.SettingsHandler,
	healthHandler fiber.Handler,
	cfg RouterConfig,
	appLogger *zap.Logger,
) (*fiber.App, error) {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimit,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(cfg.Registerer)
	if err != nil {
		return nil, err
	}

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders: middleware.RequestIDHeader,
	}))
	app.Use(middleware.RequestID())
	if cfg.Tracing {
		app.Use(otelfiber.Middleware())
	}
	app.Use(middleware.Logger(appLogger))
	app.Use(promMiddleware.Handler())

	// Swagger: importing docs registers the API description through init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", healthHandler)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	v1 := app.Group("/api/v1")

	assessments := v1.Group("/assessments")
	assessments.Post("", assessmentHandler.UploadStatement)
	assessments.Post("/text", assessmentHandler.AnalyzeText)

	history := v1.Group("/history")
	history.Get("", assessmentHandler.ListHistory)
	history.Get("/:id", assessmentHandler.GetHistory)
	history.Delete("", assessmentHandler.PurgeHistory)

	v1.Get("/settings", settingsHandler.GetSettings)
	v1.Put("/settings", settingsHandler.UpdateSettings)

	v1.Get("/integrations", settingsHandler.ListIntegrations)
	v1.Post("/integrations/:id/toggle", settingsHandler.ToggleIntegration)

	return app, nil
}
