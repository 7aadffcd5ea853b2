package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codicoteam/school-management-backend/internal/config"
	"github.com/codicoteam/school-management-backend/internal/handler"
	"github.com/codicoteam/school-management-backend/internal/middleware"
	"github.com/codicoteam/school-management-backend/internal/models"
	"github.com/codicoteam/school-management-backend/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	StudentHandler *handler.StudentHandler
	TeacherHandler *handler.TeacherHandler
	FeeHandler     *handler.FeeHandler
	PaymentHandler *handler.PaymentHandler
	ReportHandler  *handler.ReportHandler
	JWTMiddleware  fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Public routes
// (health, auth, the provider webhook) are registered before any guarded
// group so prefix middleware never shadows them.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.RequireRole(models.RoleAdmin, models.RoleTeacher, models.RoleReceptionist)
	billingDesk := middleware.RequireRole(models.RoleAdmin, models.RoleReceptionist)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(auth, jwtMiddleware, adminOnly)
	}

	// The provider calls the webhook without a bearer token.
	if deps.PaymentHandler != nil {
		deps.PaymentHandler.RegisterWebhook(api.Group("/payments"))
	}

	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/students", jwtMiddleware, staffOnly), adminOnly)
	}

	if deps.TeacherHandler != nil {
		teachers := api.Group("/teachers", jwtMiddleware, middleware.RequireRole(models.RoleAdmin, models.RoleTeacher))
		deps.TeacherHandler.Register(teachers, adminOnly)
	}

	if deps.FeeHandler != nil {
		deps.FeeHandler.Register(api.Group("/fees", jwtMiddleware), billingDesk, adminOnly)
		deps.FeeHandler.RegisterStructures(api.Group("/fee-structures", jwtMiddleware), adminOnly)
	}

	if deps.PaymentHandler != nil {
		payments := api.Group("/payments", jwtMiddleware)
		payments.Use(middleware.RateLimit("payments", 30, time.Minute))
		deps.PaymentHandler.Register(payments, adminOnly)
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(api.Group("/reports", jwtMiddleware, adminOnly))
	}
}
