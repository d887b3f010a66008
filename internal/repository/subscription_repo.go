package repository

import (
	"context"

	"cafe-stock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Subscription, error)
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*model.Subscription, error)
	Create(ctx context.Context, sub *model.Subscription) error
	Save(ctx context.Context, sub *model.Subscription) error
}

type subscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db}
}

func (r *subscriptionRepo) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{tx}
}

func (r *subscriptionRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	return r.first(r.db.WithContext(ctx), userID)
}

func (r *subscriptionRepo) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), userID)
}

func (r *subscriptionRepo) first(db *gorm.DB, userID uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription
	if err := db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	return translate(r.db.WithContext(ctx).Create(sub).Error)
}

// Save writes the lifecycle columns. Plan name and price are fixed at
// creation.
func (r *subscriptionRepo) Save(ctx context.Context, sub *model.Subscription) error {
	res := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]interface{}{
			"status":           sub.Status,
			"trial_started_at": sub.TrialStartedAt,
			"trial_ends_at":    sub.TrialEndsAt,
			"paid_until":       sub.PaidUntil,
			"updated_at":       sub.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
