package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceProfile is the buyer identity printed on a user's invoices.
type InvoiceProfile struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	BusinessName string    `gorm:"type:varchar(255);not null" json:"business_name"`
	TaxID        *string   `gorm:"type:varchar(50)" json:"tax_id,omitempty"`
	Branch       *string   `gorm:"type:varchar(100)" json:"branch,omitempty"`
	Address      string    `gorm:"type:text;not null" json:"address"`
	Email        *string   `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone        *string   `gorm:"type:varchar(50)" json:"phone,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *InvoiceProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
