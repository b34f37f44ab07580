// Package routes wires the API handlers onto a fiber app.
package routes

import (
	"time"

	"scanpay/internal/handlers"
	"scanpay/internal/middleware"
	"scanpay/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Health         *handlers.HealthHandler
	QR             *handlers.QRHandler
	Transactions   *handlers.TransactionHandler
	Beneficiaries  *handlers.BeneficiaryHandler
	Reconciliation *handlers.ReconciliationHandler
	// Metrics serves the Prometheus registry; nil disables /metrics.
	Metrics fiber.Handler
}

// PublicRateLimit bounds unauthenticated QR calls per client IP per minute.
const PublicRateLimit = 60

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware) {
	setupPublicRoutes(app, h)

	api := app.Group("/api", auth.Handler)
	setupTransactionRoutes(api, h.Transactions)
	setupBeneficiaryRoutes(api, h.Beneficiaries)
	setupReconciliationRoutes(api, h.Reconciliation)
}

func setupPublicRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", h.Health.Health)
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics)
	}

	qr := app.Group("/api/qr", limiter.New(limiter.Config{
		Max:        PublicRateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))
	qr.Post("/interpret", h.QR.Interpret)
	qr.Post("/render", h.QR.Render)
}

func setupTransactionRoutes(router fiber.Router, h *handlers.TransactionHandler) {
	tx := router.Group("/transactions")
	tx.Post("/", middleware.HasPermission(models.PermissionTransactionWrite), h.Create)
	tx.Get("/", middleware.HasPermission(models.PermissionTransactionRead), h.List)
	tx.Get("/:id", middleware.HasPermission(models.PermissionTransactionRead), h.Get)
	tx.Patch("/:id", middleware.HasPermission(models.PermissionTransactionWrite), h.Update)
}

func setupBeneficiaryRoutes(router fiber.Router, h *handlers.BeneficiaryHandler) {
	b := router.Group("/beneficiaries")
	b.Get("/:vpa", middleware.HasPermission(models.PermissionTransactionRead), h.Get)
	b.Put("/", middleware.HasPermission(models.PermissionBeneficiaryWrite), h.Upsert)
}

func setupReconciliationRoutes(router fiber.Router, h *handlers.ReconciliationHandler) {
	r := router.Group("/reconciliation")
	r.Get("/", middleware.HasPermission(models.PermissionReconcile), h.List)
	r.Post("/run", middleware.HasPermission(models.PermissionReconcile), h.Run)
}
