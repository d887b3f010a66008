package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// Subscription is the billing state of one user. Trial fields are nullable
// because rows created before trials existed carry none; they are
// backfilled on the next login.
type Subscription struct {
	BaseModel
	UserID         uuid.UUID          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	PlanName       string             `gorm:"type:varchar(50);not null" json:"plan_name"`
	Price          decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"price"`
	Status         SubscriptionStatus `gorm:"type:varchar(20);not null" json:"status"`
	TrialStartedAt *time.Time         `json:"trial_started_at,omitempty"`
	TrialEndsAt    *time.Time         `json:"trial_ends_at,omitempty"`
	PaidUntil      *time.Time         `json:"paid_until,omitempty"`
}
