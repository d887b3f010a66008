// Package router wires handlers and middleware onto the fiber app.
package router

import (
	"cafe-stock/internal/handler"
	"cafe-stock/internal/middleware"
	"cafe-stock/internal/model"
	"cafe-stock/internal/service"
	"cafe-stock/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Deps is everything SetupRoutes needs.
type Deps struct {
	Auth                 service.AuthService
	Billing              service.BillingService
	SubscriptionEnforced bool
	Hub                  *ws.Hub
	Log                  *zap.Logger

	AuthHandler      *handler.AuthHandler
	InventoryHandler *handler.InventoryHandler
	DashboardHandler *handler.DashboardHandler
	UserHandler      *handler.UserHandler
	BillingHandler   *handler.BillingHandler
}

func SetupRoutes(app *fiber.App, d Deps) {
	requireAuth := middleware.RequireAuth(d.Auth, d.Log)
	requireActive := middleware.RequireActiveSubscription(d.Billing, d.SubscriptionEnforced, d.Log)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := api.Group("/auth")
	auth.Post("/register", d.AuthHandler.Register)
	auth.Post("/login", d.AuthHandler.Login)
	auth.Get("/validate-token", requireAuth, d.AuthHandler.ValidateToken)
	auth.Post("/change-password", requireAuth, d.AuthHandler.ChangePassword)

	// ============ BILLING (reachable while the subscription is inactive) ============
	billing := api.Group("/billing", requireAuth)
	billing.Get("", d.BillingHandler.GetOverview)
	billing.Post("/pay", d.BillingHandler.SubmitPayment)
	billing.Put("/profile", d.BillingHandler.SaveProfile)
	billing.Get("/invoices/:id", d.BillingHandler.GetInvoice)

	// Payment review stays reachable so a lapsed admin can approve
	admin := api.Group("/admin", requireAuth, middleware.RequirePrivilege(model.PrivPaymentReview))
	admin.Get("/payments", d.BillingHandler.ListPayments)
	admin.Get("/payments/:id/slip", d.BillingHandler.GetSlip)
	admin.Post("/payments/:id/approve", d.BillingHandler.ApprovePayment)
	admin.Post("/payments/:id/reject", d.BillingHandler.RejectPayment)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth, requireActive)

	protected.Get("/users/me", d.UserHandler.GetMe)

	// Dashboard
	protected.Get("/dashboard/stats", middleware.RequirePrivilege(model.PrivDashboardView), d.DashboardHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", middleware.RequirePrivilege(model.PrivDashboardView), d.DashboardHandler.GetStockMovement)

	// Products; static paths before :id
	protected.Get("/products", middleware.RequirePrivilege(model.PrivProductView), d.InventoryHandler.GetProducts)
	protected.Get("/products/export", middleware.RequirePrivilege(model.PrivExport), d.InventoryHandler.ExportProducts)
	protected.Post("/products/import", middleware.RequirePrivilege(model.PrivImport), d.InventoryHandler.ImportProducts)
	protected.Get("/products/:id", middleware.RequirePrivilege(model.PrivProductView), d.InventoryHandler.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), d.InventoryHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), d.InventoryHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege(model.PrivProductDelete), d.InventoryHandler.DeleteProduct)

	protected.Get("/alerts/low-stock", middleware.RequirePrivilege(model.PrivProductView), d.InventoryHandler.GetLowStock)

	// Movements
	protected.Get("/movements", middleware.RequirePrivilege(model.PrivMovementView), d.InventoryHandler.GetMovements)
	protected.Post("/movements", middleware.RequirePrivilege(model.PrivMovementCreate), d.InventoryHandler.CreateMovement)

	// User management
	protected.Get("/users", middleware.RequirePrivilege(model.PrivUserView), d.UserHandler.GetUsers)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserCreate), d.UserHandler.CreateUser)

	// WebSocket Route; browsers pass the token as ?token=
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, requireAuth)
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		actor, ok := c.Locals(middleware.LocalActor).(service.Actor)
		if !ok {
			return
		}
		d.Hub.Serve(c, actor.TenantID, actor.UserID)
	}))
}
