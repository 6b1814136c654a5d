package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/phonepe-statement-analyzer/internal/config"
)

const requestIDKey = "requestID"

// NewApp builds the fiber app with middleware and routes.
func NewApp(cfg config.Config, h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "phonepe-statement-analyzer",
		BodyLimit:             cfg.BodyLimit(),
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(h.Log),
	})

	app.Use(recover.New())
	app.Use(requestID())
	app.Use(accessLog(h.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	h.RegisterRoutes(app)
	return app
}

// requestID reuses an incoming X-Request-ID or assigns a new one.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals(requestIDKey, id)
		return c.Next()
	}
}

func requestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// accessLog writes one structured line per request.
func accessLog(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("request_id", requestIDFrom(c)).
			Msg("HTTP request")
		return err
	}
}

// errorHandler renders errors escaping a handler (404, 413, panics) as JSON.
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		return writeError(c, code, err.Error())
	}
}
