package repository

import (
	"context"
	"time"

	"cafe-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementRepository is append-only: movements are inserted and read,
// never updated or deleted.
type MovementRepository interface {
	WithTx(tx *gorm.DB) MovementRepository
	Create(ctx context.Context, movement *model.StockMovement) error
	ListForProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]model.StockMovement, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]model.StockMovement, error)
	ListSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]model.StockMovement, error)
	Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.StockMovement, error)
	CountForProduct(ctx context.Context, tenantID, productID uuid.UUID) (int64, error)
	CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error)
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) WithTx(tx *gorm.DB) MovementRepository {
	return &movementRepo{tx}
}

func (r *movementRepo) Create(ctx context.Context, movement *model.StockMovement) error {
	return translate(r.db.WithContext(ctx).Create(movement).Error)
}

// ListForProduct loads the columns the stock fold needs for one product.
func (r *movementRepo) ListForProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).
		Select("id", "product_id", "type", "qty").
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Find(&movements).Error
	return movements, translate(err)
}

// ListForTenant loads the fold columns for every product of the tenant.
func (r *movementRepo) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).
		Select("id", "product_id", "type", "qty").
		Where("tenant_id = ?", tenantID).
		Find(&movements).Error
	return movements, translate(err)
}

func (r *movementRepo) ListSince(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, translate(err)
}

// Recent returns the newest movements with product and author attached.
// limit <= 0 returns all of them.
func (r *movementRepo) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.StockMovement, error) {
	q := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Author").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var movements []model.StockMovement
	err := q.Find(&movements).Error
	return movements, translate(err)
}

func (r *movementRepo) CountForProduct(ctx context.Context, tenantID, productID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.StockMovement{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Count(&n).Error
	return n, translate(err)
}

func (r *movementRepo) CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.StockMovement{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Count(&n).Error
	return n, translate(err)
}
