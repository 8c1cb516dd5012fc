package http

import (
	"errors"
	"fmt"
	"time"

	"gameserver/internal/server/config"
	"gameserver/internal/server/core"
	"gameserver/internal/server/service"
	"gameserver/internal/server/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the services.
type HTTPHandler struct {
	svc      *service.Service
	store    *storage.Store
	docs     *config.Documents
	log      *zap.Logger
	testMode bool
}

func NewHTTPHandler(svc *service.Service, store *storage.Store, docs *config.Documents, log *zap.Logger, testMode bool) *HTTPHandler {
	return &HTTPHandler{svc: svc, store: store, docs: docs, log: log, testMode: testMode}
}

// NewFiberApp wires middleware and the route table.
func NewFiberApp(svc *service.Service, store *storage.Store, docs *config.Documents, log *zap.Logger, cfg config.AppConfig) *fiber.App {
	h := NewHTTPHandler(svc, store, docs, log, cfg.TestMode)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		// Game and move payloads arrive URL-encoded in path segments.
		UnescapePath: true,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Liveness endpoints (no rate limit)
	app.Get("/hello", h.Hello)
	app.Get("/health", h.Health)

	// Account creation: 5 req/min per IP
	app.Post("/create_user", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.CodeRateLimit,
				Details: "5 registrations per minute allowed",
			})
		},
	}), validationMiddleware, h.CreateUser)

	// Standard rate limiting for everything else
	maxReq := rateLimitRate
	if cfg.DevMode {
		maxReq = rateLimitRate * 2
	}
	app.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.CodeRateLimit,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	app.Use(contentTypeValidator)
	app.Use(validationMiddleware)

	app.Get("/test_db", h.TestDB)
	app.Get("/get_config/:name", h.GetConfig)

	app.Get("/get_game/:id", h.GetGame)
	app.Get("/update_game/:id/:game", h.UpdateGame)
	app.Post("/update_game/:id/:game", h.UpdateGame)
	app.Get("/set_move/:game_id/:username/:move", h.SetMove)
	app.Post("/create_game", h.CreateGame)
	app.Get("/list_games/:complete/:username", h.ListGames)
	app.Get("/list_moves/:game_id/:username/:num_moves", h.ListMoves)

	app.Post("/verify_user", h.VerifyUser)
	app.Post("/update_user", h.UpdateUser)

	app.Get("/reset_test_database", h.ResetTestDatabase)

	return app
}

// contentTypeValidator ensures POST requests carry application/json
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.CodeContentType,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.CodeUnknown,
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.CodeNotFound
		case fiber.StatusBadRequest:
			response.Code = core.CodeBadRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.CodeRateLimit
		}
	}

	return c.Status(code).JSON(response)
}

// respondError maps a domain error onto its HTTP status. Everything that
// is not a not-found or permission failure collapses into a generic 500;
// full detail stays in the server log.
func (h *HTTPHandler) respondError(c *fiber.Ctx, err error) error {
	kind := core.KindOf(err)

	h.log.Error("request failed",
		zap.String("path", c.Path()),
		zap.String("kind", kind.String()),
		zap.Error(err),
	)

	switch kind {
	case core.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "not found",
			Code:  core.CodeNotFound,
		})
	case core.KindNoPermission:
		return c.Status(fiber.StatusForbidden).JSON(core.ErrorResponse{
			Error: "permission denied",
			Code:  core.CodeNoPermission,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "internal server error",
			Code:  kind.String(),
		})
	}
}

func badRequest(c *fiber.Ctx, details string) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   "invalid request",
		Code:    core.CodeBadRequest,
		Details: details,
	})
}

// Hello is a plain-text liveness probe.
func (h *HTTPHandler) Hello(c *fiber.Ctx) error {
	return c.SendString("Hello there!")
}

// Health reports service and storage status.
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.StorageHealth(),
	})
}

// TestDB answers 200 either way; the body tells whether the store is up.
func (h *HTTPHandler) TestDB(c *fiber.Ctx) error {
	if err := h.store.Ping(); err != nil {
		h.log.Error("database check failed", zap.Error(err))
		return c.SendString("Database error: " + core.KindOf(err).String())
	}
	return c.SendString("Database up and running")
}

// GetConfig serves a named config document loaded at startup.
func (h *HTTPHandler) GetConfig(c *fiber.Ctx) error {
	name := c.Params("name")

	content, ok := h.docs.Get(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "unknown config document",
			Code:  core.CodeNotFound,
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(content)
}

// ResetTestDatabase drops and recreates the schema, test mode only.
func (h *HTTPHandler) ResetTestDatabase(c *fiber.Ctx) error {
	if !h.testMode {
		return c.Status(fiber.StatusForbidden).JSON(core.ErrorResponse{
			Error: "not a test environment, reset aborted",
			Code:  core.CodeNoPermission,
		})
	}

	if err := h.store.ResetDB(); err != nil {
		return h.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
