package repository

import (
	"context"

	"cafe-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Payment, error)
	UpdateReview(ctx context.Context, payment *model.Payment) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Payment, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.Payment, error)
}

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) PaymentRepository {
	return &paymentRepo{db}
}

func (r *paymentRepo) WithTx(tx *gorm.DB) PaymentRepository {
	return &paymentRepo{tx}
}

func (r *paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return translate(r.db.WithContext(ctx).Create(payment).Error)
}

// FindByID loads a payment with its submitter regardless of tenant; callers
// decide who may see it.
func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Preload("User").First(&payment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := forUpdate(r.db.WithContext(ctx)).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&payment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// UpdateReview writes only the review metadata.
func (r *paymentRepo) UpdateReview(ctx context.Context, payment *model.Payment) error {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"status":      payment.Status,
			"approved_at": payment.ApprovedAt,
			"approved_by": payment.ApprovedBy,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Payment, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID), limit)
}

func (r *paymentRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.Payment, error) {
	return r.list(r.db.WithContext(ctx).Preload("User").Where("tenant_id = ?", tenantID), limit)
}

func (r *paymentRepo) list(q *gorm.DB, limit int) ([]model.Payment, error) {
	q = q.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var payments []model.Payment
	err := q.Find(&payments).Error
	return payments, translate(err)
}
