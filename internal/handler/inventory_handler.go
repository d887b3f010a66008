package handler

import (
	"bytes"
	"strconv"

	"cafe-stock/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultMovementLimit = 100

type InventoryHandler struct {
	service service.InventoryService
	log     *zap.Logger
}

func NewInventoryHandler(s service.InventoryService, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{service: s, log: log.Named("inventory")}
}

// CreateProduct handles product creation
// POST /api/v1/products
func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.CreateProduct(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"data":    product,
	})
}

// UpdateProduct edits name, unit and minimum of a product
// PUT /api/v1/products/:id
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), actor, id, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"data":    product,
	})
}

// DeleteProduct removes a product without history
// DELETE /api/v1/products/:id
func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	if err := h.service.DeleteProduct(c.UserContext(), actor, id); err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

// GetProduct returns one product with its derived stock
// GET /api/v1/products/:id
func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.service.GetProduct(c.UserContext(), actor.TenantID, id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"data": product, "low": product.IsLow()})
}

// GetProducts lists products with stock
// Query params: q (name search), low=1 (only low stock)
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	filter := service.StockFilter{
		Query:   c.Query("q"),
		LowOnly: c.Query("low") == "1" || c.Query("low") == "true",
	}

	products, err := h.service.ListWithStock(c.UserContext(), actor.TenantID, filter)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"data": products, "count": len(products)})
}

// GetLowStock is the uncapped low stock report
// GET /api/v1/alerts/low-stock
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	products, err := h.service.LowStock(c.UserContext(), actor.TenantID, 0)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"data": products, "count": len(products)})
}

// CreateMovement records one stock movement
// POST /api/v1/movements
func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	result, err := h.service.RecordMovement(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Movement recorded",
		"data":    result.Movement,
		"stock":   result.Stock,
		"low":     result.Low,
	})
}

// GetMovements lists tenant movements newest first
// Query params: limit (default 100)
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultMovementLimit)))
	if err != nil || limit <= 0 {
		limit = defaultMovementLimit
	}

	movements, err := h.service.ListMovements(c.UserContext(), actor.TenantID, limit)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{"data": movements, "count": len(movements)})
}

// ImportProducts reads a CSV upload in the "file" form field
// POST /api/v1/products/import
func (h *InventoryHandler) ImportProducts(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "CSV file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer f.Close()

	result, err := h.service.ImportProducts(c.UserContext(), actor, f)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Import finished",
		"imported": result.Imported(),
		"created":  result.Created,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	})
}

// ExportProducts downloads products.csv
// GET /api/v1/products/export
func (h *InventoryHandler) ExportProducts(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var buf bytes.Buffer
	if err := h.service.ExportProducts(c.UserContext(), actor.TenantID, &buf); err != nil {
		return respondError(c, h.log, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment("products.csv")
	return c.Send(buf.Bytes())
}
