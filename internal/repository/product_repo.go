package repository

import (
	"context"
	"strings"

	"cafe-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository reads and writes products inside one tenant. Every
// lookup takes the tenant so a product id from another tenant is simply
// not found.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*model.Product, error)
	List(ctx context.Context, tenantID uuid.UUID, nameQuery string) ([]model.Product, error)
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND tenant_id = ?", product.ID, product.TenantID).
		Updates(map[string]interface{}{
			"name":       product.Name,
			"unit":       product.Unit,
			"min_qty":    product.MinQty,
			"updated_by": product.UpdatedBy,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	return r.first(r.db.WithContext(ctx), "id = ? AND tenant_id = ?", id, tenantID)
}

// FindByIDForUpdate locks the product row so ledger writes for the same
// product serialize.
func (r *productRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), "id = ? AND tenant_id = ?", id, tenantID)
}

func (r *productRepo) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*model.Product, error) {
	return r.first(r.db.WithContext(ctx), "sku = ? AND tenant_id = ?", sku, tenantID)
}

func (r *productRepo) first(db *gorm.DB, query string, args ...interface{}) (*model.Product, error) {
	var product model.Product
	if err := db.Where(query, args...).First(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// List returns the tenant's products ordered by name. A non-empty
// nameQuery keeps names containing it, ignoring case.
func (r *productRepo) List(ctx context.Context, tenantID uuid.UUID, nameQuery string) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if nameQuery = strings.TrimSpace(nameQuery); nameQuery != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(nameQuery)+"%")
	}

	var products []model.Product
	err := q.Order("name ASC").Find(&products).Error
	return products, translate(err)
}

func (r *productRepo) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("tenant_id = ?", tenantID).Count(&n).Error
	return n, translate(err)
}
