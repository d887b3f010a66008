package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	TenantID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_tenant_sku,priority:1" json:"tenant_id"`
	SKU      string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_products_tenant_sku,priority:2" json:"sku"`
	Name     string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit     string          `gorm:"type:varchar(20);not null" json:"unit"`
	MinQty   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"min_qty"`
}

// ProductWithStock is a product joined with its stock derived from the ledger.
type ProductWithStock struct {
	Product
	Stock decimal.Decimal `json:"stock"`
}

// IsLow reports whether the derived stock is at or below the minimum threshold.
func (p ProductWithStock) IsLow() bool {
	return p.Stock.LessThanOrEqual(p.MinQty)
}
