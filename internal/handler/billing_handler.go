package handler

import (
	"context"
	"errors"

	"cafe-stock/internal/model"
	"cafe-stock/internal/service"
	"cafe-stock/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BillingHandler struct {
	billing service.BillingService
	slips   *storage.SlipStore
	log     *zap.Logger
}

func NewBillingHandler(billing service.BillingService, slips *storage.SlipStore, log *zap.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, slips: slips, log: log.Named("billing")}
}

// GetOverview returns plan, subscription, profile and recent payments
// GET /api/v1/billing
func (h *BillingHandler) GetOverview(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	overview, err := h.billing.Overview(c.UserContext(), actor)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(overview)
}

// SubmitPayment accepts a JSON body or a multipart form with an optional
// "slip" file. The slip is stored before the payment row is written and
// removed again when the payment is refused.
// POST /api/v1/billing/pay
func (h *BillingHandler) SubmitPayment(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if fh, err := c.FormFile("slip"); err == nil {
		path, err := h.slips.SaveMultipart(fh)
		if err != nil {
			return respondError(c, h.log, err)
		}
		req.SlipPath = path
	}

	payment, err := h.billing.SubmitPayment(c.UserContext(), actor, &req)
	if err != nil {
		if req.SlipPath != "" {
			if rmErr := h.slips.Remove(req.SlipPath); rmErr != nil {
				h.log.Warn("remove orphaned slip", zap.String("path", req.SlipPath), zap.Error(rmErr))
			}
		}
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Payment submitted and waiting for review",
		"data":     payment,
		"has_slip": payment.HasSlip(),
	})
}

// SaveProfile upserts the buyer block printed on invoices
// PUT /api/v1/billing/profile
func (h *BillingHandler) SaveProfile(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.InvoiceProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	profile, err := h.billing.SaveInvoiceProfile(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"message": "Invoice profile saved",
		"data":    profile,
	})
}

// GetInvoice renders the tax invoice of an approved payment
// GET /api/v1/billing/invoices/:id
func (h *BillingHandler) GetInvoice(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	invoice, err := h.billing.Invoice(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(invoice)
}

// ListPayments lists the latest payments of the admin's tenant
// GET /api/v1/admin/payments
func (h *BillingHandler) ListPayments(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	payments, err := h.billing.ListTenantPayments(c.UserContext(), actor)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"data": payments, "count": len(payments)})
}

// GetSlip streams the uploaded slip of a payment
// GET /api/v1/admin/payments/:id/slip
func (h *BillingHandler) GetSlip(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	path, err := h.billing.SlipPath(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	abs, err := h.slips.Resolve(path)
	if err != nil {
		if errors.Is(err, storage.ErrOutsideRoot) {
			h.log.Warn("slip outside slip directory", zap.String("payment_id", id.String()))
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Slip not found"})
		}
		return respondError(c, h.log, err)
	}

	return c.SendFile(abs)
}

// ApprovePayment activates the owner's subscription for one period
// POST /api/v1/admin/payments/:id/approve
func (h *BillingHandler) ApprovePayment(c *fiber.Ctx) error {
	return h.reviewPayment(c, h.billing.ApprovePayment, "Payment approved")
}

// RejectPayment marks the owner's subscription past due
// POST /api/v1/admin/payments/:id/reject
func (h *BillingHandler) RejectPayment(c *fiber.Ctx) error {
	return h.reviewPayment(c, h.billing.RejectPayment, "Payment rejected")
}

type reviewFunc func(ctx context.Context, admin service.Actor, paymentID uuid.UUID) (*model.Payment, error)

func (h *BillingHandler) reviewPayment(c *fiber.Ctx, review reviewFunc, message string) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment ID"})
	}

	payment, err := review(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"message": message,
		"data":    payment,
	})
}
