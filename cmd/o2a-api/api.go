package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/observe2agent/observe2agent/pkg/services"
	"github.com/observe2agent/observe2agent/pkg/web"
)

type API struct {
	logger   *slog.Logger
	pipeline *services.Pipeline
	gateway  *services.Gateway
	validate *validator.Validate
	app      *fiber.App
}

func NewAPI(
	logger *slog.Logger,
	pipelineService *services.Pipeline,
	gateway *services.Gateway,
) *API {
	return &API{
		logger:   logger,
		pipeline: pipelineService,
		gateway:  gateway,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	if a.app != nil {
		return a.app
	}

	handlers := web.NewAPIHandlers(a.pipeline, a.gateway, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			_, ok := a.pipeline.HealthCheck(c.Context())

			return ok
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("observe2agent API")
	})

	handlers.Routes(app)

	a.app = app

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}

func (a *API) Shutdown() error {
	if a.app == nil {
		return nil
	}

	return a.app.Shutdown()
}
