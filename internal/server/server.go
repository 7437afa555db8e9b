package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"araudit/internal/config"
	"araudit/internal/logger"
	"araudit/internal/pipeline"
)

type Deps struct {
	Config  config.Config
	Service *pipeline.AuditService
	Store   *Store
	Log     *logger.Logger
}

// NewApp builds the fiber application with middleware and routes.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "araudit",
		BodyLimit:    deps.Config.UploadMaxBytes,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: errorHandler(deps.Log),
	})
	app.Use(recover.New())
	if deps.Config.HTTPLogRequests {
		app.Use(requestLogger(deps.Log))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "datasets": deps.Store.Len()})
	})

	Router(app, NewAuditHandler(deps.Service, deps.Store), deps.Config)
	return app
}

func Router(app *fiber.App, h *AuditHandler, cfg config.Config) {
	api := app.Group("/api")
	api.Get("/tools", h.Tools)

	audits := api.Group("/audits")
	if cfg.UploadRatePerMin > 0 {
		audits.Post("/", uploadLimiter(cfg.UploadRatePerMin), h.Upload)
	} else {
		audits.Post("/", h.Upload)
	}
	audits.Get("/:id", h.Get)
	audits.Get("/:id/summary", h.Summary)
	audits.Get("/:id/aging", h.Aging)
	audits.Get("/:id/anomalies", h.Anomalies)
	audits.Get("/:id/customers", h.Customers)
	audits.Get("/:id/export.xlsx", h.ExportXLSX)
	audits.Post("/:id/tools", h.CallTools)
}

func uploadLimiter(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Code: "RATE_LIMITED", Message: "too many uploads, retry later"})
		},
	})
}

func requestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
		return err
	}
}

func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			return c.Status(code).JSON(ErrorResponse{Code: "INTERNAL", Message: "internal error"})
		}
		return c.Status(code).JSON(ErrorResponse{Code: "REQUEST_ERROR", Message: err.Error()})
	}
}
