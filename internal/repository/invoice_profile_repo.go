package repository

import (
	"context"

	"cafe-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.InvoiceProfile, error)
	Upsert(ctx context.Context, profile *model.InvoiceProfile) error
}

type invoiceProfileRepo struct {
	db *gorm.DB
}

func NewInvoiceProfileRepo(db *gorm.DB) InvoiceProfileRepository {
	return &invoiceProfileRepo{db}
}

func (r *invoiceProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.InvoiceProfile, error) {
	var profile model.InvoiceProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// Upsert keeps one profile per user, replacing every field on conflict.
func (r *invoiceProfileRepo) Upsert(ctx context.Context, profile *model.InvoiceProfile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"business_name", "tax_id", "branch", "address", "email", "phone", "updated_at",
		}),
	}).Create(profile).Error
	return translate(err)
}
