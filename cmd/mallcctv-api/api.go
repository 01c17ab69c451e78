// Package main provides the analytics HTTP API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/vallabhn1/MallCCTV/pkg/persistence"
	"github.com/vallabhn1/MallCCTV/pkg/web"
)

type API struct {
	logger  *slog.Logger
	store   persistence.Persistence
	trigger web.RunTrigger
}

func NewAPI(logger *slog.Logger, store persistence.Persistence, trigger web.RunTrigger) *API {
	return &API{
		logger:  logger,
		store:   store,
		trigger: trigger,
	}
}

func (a *API) App() *fiber.App {
	validate := validator.New(validator.WithRequiredStructEnabled())
	handlers := web.NewAPIHandlers(a.logger, a.trigger, a.store, validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("MallCCTV API")
	})

	runs := app.Group("/runs")
	runs.Post("/", handlers.StartRun)
	runs.Get("/:threadID", handlers.GetRun)
	runs.Get("/:threadID/checkpoints", handlers.GetRunCheckpoints)

	app.Get("/alerts", handlers.GetAlerts)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
