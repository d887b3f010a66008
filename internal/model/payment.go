package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

const PaymentMethodPromptPay = "promptpay"

// Payment is a claimed payment awaiting review. Once approved only the
// review metadata (status, ApprovedAt, ApprovedBy) has ever been written.
type Payment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User           `json:"user,omitempty"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method     string          `gorm:"type:varchar(30);not null" json:"method"`
	Reference  *string         `gorm:"type:varchar(100)" json:"reference,omitempty"`
	SlipPath   *string         `gorm:"type:varchar(500)" json:"-"`
	Status     PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy *uuid.UUID      `gorm:"type:uuid" json:"approved_by,omitempty"`
	Note       *string         `gorm:"type:text" json:"note,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasSlip reports whether an uploaded slip is stored for the payment.
func (p *Payment) HasSlip() bool {
	return p.SlipPath != nil && *p.SlipPath != ""
}
