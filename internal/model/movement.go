package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementKind string

const (
	MovementIn     MovementKind = "in"
	MovementOut    MovementKind = "out"
	MovementAdjust MovementKind = "adjust"
)

// Valid reports whether k is one of the three ledger kinds.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementIn, MovementOut, MovementAdjust:
		return true
	}
	return false
}

// StockMovement is an immutable ledger entry. Rows are only ever inserted,
// so there is no UpdatedAt or soft-delete column.
//
// Quantity is the stored magnitude: positive for in/out, and for adjust the
// signed delta computed when the entry was recorded.
type StockMovement struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Kind      MovementKind    `gorm:"column:type;type:varchar(10);not null" json:"type"`
	Quantity  decimal.Decimal `gorm:"column:qty;type:decimal(20,4);not null" json:"qty"`
	Note      *string         `gorm:"type:text" json:"note,omitempty"`
	AuthorID  uuid.UUID       `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	Author    *User           `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
