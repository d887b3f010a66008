package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"cafe-stock/internal/ledger"
	"cafe-stock/internal/model"
	"cafe-stock/internal/repository"
	"cafe-stock/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, actor Actor, req *ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, req *ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error
	GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*model.ProductWithStock, error)
	CurrentStock(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error)
	ListWithStock(ctx context.Context, tenantID uuid.UUID, filter StockFilter) ([]model.ProductWithStock, error)
	LowStock(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.ProductWithStock, error)
	RecordMovement(ctx context.Context, actor Actor, req *MovementRequest) (*MovementResult, error)
	ListMovements(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.StockMovement, error)
	CatalogTransfer
}

type ProductRequest struct {
	SKU    string          `json:"sku" validate:"max=50"`
	Name   string          `json:"name" validate:"required,max=255"`
	Unit   string          `json:"unit" validate:"required,max=20"`
	MinQty decimal.Decimal `json:"min_qty" validate:"gte=0"`
}

func (r *ProductRequest) normalize() {
	r.SKU = strings.TrimSpace(r.SKU)
	r.Name = strings.TrimSpace(r.Name)
	r.Unit = strings.TrimSpace(r.Unit)
}

func (r *ProductRequest) validate() error {
	if err := validate(r); err != nil {
		return err
	}
	if !ledger.Representable(r.MinQty) {
		return validationError("min_qty %s: %v", r.MinQty, ledger.ErrQuantityOutOfRange)
	}
	return nil
}

type MovementRequest struct {
	ProductID uuid.UUID          `json:"product_id" validate:"uuid_required"`
	Kind      model.MovementKind `json:"type" validate:"required,oneof=in out adjust"`
	Quantity  decimal.Decimal    `json:"qty" validate:"gt=0"`
	Note      string             `json:"note" validate:"max=500"`
}

// MovementResult is the stored entry and the stock right after it.
type MovementResult struct {
	Movement model.StockMovement `json:"movement"`
	Stock    decimal.Decimal     `json:"stock"`
	Low      bool                `json:"low"`
}

// StockFilter narrows ListWithStock. Query matches a name substring
// ignoring case; LowOnly keeps products at or below their minimum.
type StockFilter struct {
	Query   string
	LowOnly bool
}

type inventoryService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	notifier     Notifier
	clock        Clock
	log          *zap.Logger
}

func NewInventoryService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	mRepo repository.MovementRepository,
	notifier Notifier,
	clock Clock,
	log *zap.Logger,
) InventoryService {
	return &inventoryService{
		db:           db,
		productRepo:  pRepo,
		movementRepo: mRepo,
		notifier:     notifier,
		clock:        clock,
		log:          log.Named("inventory"),
	}
}

func (s *inventoryService) CreateProduct(ctx context.Context, actor Actor, req *ProductRequest) (*model.Product, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	product := &model.Product{
		TenantID: actor.TenantID,
		SKU:      req.SKU,
		Name:     req.Name,
		Unit:     req.Unit,
		MinQty:   req.MinQty,
	}
	product.CreatedBy = actor.UserID.String()
	product.UpdatedBy = actor.UserID.String()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		if product.SKU == "" {
			sku, err := s.newSKU(ctx, products, actor.TenantID)
			if err != nil {
				return err
			}
			product.SKU = sku
		}
		return products.Create(ctx, product)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: sku %q already exists", ErrDuplicateKey, product.SKU)
		}
		return nil, err
	}

	s.log.Info("product created",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
	)
	s.notifier.Publish(actor.TenantID, ws.Event{
		Type:    ws.EventStockUpdate,
		Action:  "product_created",
		Data:    model.ProductWithStock{Product: *product, Stock: decimal.Zero},
		Message: fmt.Sprintf("%s created product '%s'", actor.Username, product.Name),
	})
	return product, nil
}

// UpdateProduct changes name, unit and minimum. The SKU is fixed once
// created.
func (s *inventoryService) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, req *ProductRequest) (*model.Product, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	product.Name = req.Name
	product.Unit = req.Unit
	product.MinQty = req.MinQty
	product.UpdatedBy = actor.UserID.String()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.notifier.Publish(actor.TenantID, ws.Event{
		Type:    ws.EventStockUpdate,
		Action:  "product_updated",
		Data:    product,
		Message: fmt.Sprintf("%s updated product '%s'", actor.Username, product.Name),
	})
	return s.productRepo.FindByID(ctx, actor.TenantID, id)
}

// DeleteProduct removes a product that has never moved. Products with
// ledger history are kept so the history stays complete.
func (s *inventoryService) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		product, err := products.FindByIDForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		name = product.Name

		n, err := s.movementRepo.WithTx(tx).CountForProduct(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrProductInUse
		}
		return products.Delete(ctx, actor.TenantID, id)
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(actor.TenantID, ws.Event{
		Type:    ws.EventStockUpdate,
		Action:  "product_deleted",
		Data:    map[string]interface{}{"id": id},
		Message: fmt.Sprintf("%s deleted product '%s'", actor.Username, name),
	})
	return nil
}

func (s *inventoryService) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*model.ProductWithStock, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	movements, err := s.movementRepo.ListForProduct(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &model.ProductWithStock{Product: *product, Stock: ledger.SumMovements(movements)}, nil
}

// CurrentStock folds the product's ledger. It reads nothing else, so two
// calls with no write in between agree.
func (s *inventoryService) CurrentStock(ctx context.Context, tenantID, productID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.productRepo.FindByID(ctx, tenantID, productID); err != nil {
		return decimal.Zero, err
	}
	movements, err := s.movementRepo.ListForProduct(ctx, tenantID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.SumMovements(movements), nil
}

func (s *inventoryService) ListWithStock(ctx context.Context, tenantID uuid.UUID, filter StockFilter) ([]model.ProductWithStock, error) {
	products, err := s.productRepo.List(ctx, tenantID, filter.Query)
	if err != nil {
		return nil, err
	}
	movements, err := s.movementRepo.ListForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stock := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, m := range movements {
		stock[m.ProductID] = stock[m.ProductID].Add(ledger.Contribution(m.Kind, m.Quantity))
	}

	out := make([]model.ProductWithStock, 0, len(products))
	for _, p := range products {
		row := model.ProductWithStock{Product: p, Stock: stock[p.ID]}
		if filter.LowOnly && !row.IsLow() {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// LowStock lists products at or below their minimum. limit <= 0 returns
// all of them.
func (s *inventoryService) LowStock(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.ProductWithStock, error) {
	low, err := s.ListWithStock(ctx, tenantID, StockFilter{LowOnly: true})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(low) > limit {
		low = low[:limit]
	}
	return low, nil
}

// RecordMovement appends one ledger entry. The product row is locked for
// the whole read-then-insert so concurrent outs cannot oversell.
func (s *inventoryService) RecordMovement(ctx context.Context, actor Actor, req *MovementRequest) (*MovementResult, error) {
	req.Note = strings.TrimSpace(req.Note)
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		result  MovementResult
		product *model.Product
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = s.productRepo.WithTx(tx).FindByIDForUpdate(ctx, actor.TenantID, req.ProductID)
		if err != nil {
			return err
		}

		movements := s.movementRepo.WithTx(tx)
		history, err := movements.ListForProduct(ctx, actor.TenantID, product.ID)
		if err != nil {
			return err
		}
		current := ledger.SumMovements(history)

		qty, err := ledger.Plan(req.Kind, req.Quantity, current)
		if err != nil {
			if errors.Is(err, ledger.ErrInvalidQuantity) || errors.Is(err, ledger.ErrQuantityOutOfRange) || errors.Is(err, ledger.ErrUnknownKind) {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return err
		}

		movement := model.StockMovement{
			TenantID:  actor.TenantID,
			ProductID: product.ID,
			Kind:      req.Kind,
			Quantity:  qty,
			AuthorID:  actor.UserID,
			CreatedAt: s.clock.Now(),
		}
		if req.Note != "" {
			note := req.Note
			movement.Note = &note
		}
		if err := movements.Create(ctx, &movement); err != nil {
			return err
		}

		stock := current.Add(ledger.Contribution(movement.Kind, movement.Quantity))
		result = MovementResult{
			Movement: movement,
			Stock:    stock,
			Low:      stock.LessThanOrEqual(product.MinQty),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("movement recorded",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.String("product_id", product.ID.String()),
		zap.String("type", string(req.Kind)),
		zap.String("qty", result.Movement.Quantity.String()),
		zap.String("stock", result.Stock.String()),
	)

	data := map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
		"name":       product.Name,
		"type":       result.Movement.Kind,
		"qty":        result.Movement.Quantity,
		"stock":      result.Stock,
		"min_qty":    product.MinQty,
	}
	s.notifier.Publish(actor.TenantID, ws.Event{
		Type:    ws.EventStockUpdate,
		Action:  "movement_recorded",
		Data:    data,
		Message: fmt.Sprintf("%s recorded %s %s %s of '%s'", actor.Username, req.Kind, req.Quantity, product.Unit, product.Name),
	})
	if result.Low {
		s.notifier.Publish(actor.TenantID, ws.Event{
			Type:    ws.EventLowStock,
			Action:  "below_minimum",
			Data:    data,
			Message: fmt.Sprintf("'%s' is low: %s %s left", product.Name, result.Stock, product.Unit),
		})
	}
	return &result, nil
}

// ListMovements returns the newest movements first with product and
// author attached. limit <= 0 returns all of them.
func (s *inventoryService) ListMovements(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.StockMovement, error) {
	return s.movementRepo.Recent(ctx, tenantID, limit)
}

// newSKU generates PRD-<unix ms>-<0..999> until one is free in the tenant.
func (s *inventoryService) newSKU(ctx context.Context, products repository.ProductRepository, tenantID uuid.UUID) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		sku := fmt.Sprintf("PRD-%d-%d", s.clock.Now().UnixMilli(), rand.Intn(1000))
		_, err := products.FindBySKU(ctx, tenantID, sku)
		if errors.Is(err, ErrNotFound) {
			return sku, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: could not generate a free sku", ErrDuplicateKey)
}
