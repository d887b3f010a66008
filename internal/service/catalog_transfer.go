package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cafe-stock/internal/ledger"
	"cafe-stock/internal/model"
	"cafe-stock/internal/ws"
	"cafe-stock/pkg/csvcodec"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogTransfer moves the product catalog in and out as CSV.
type CatalogTransfer interface {
	ImportProducts(ctx context.Context, actor Actor, r io.Reader) (*ImportResult, error)
	ExportProducts(ctx context.Context, tenantID uuid.UUID, w io.Writer) error
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Imported is the number of rows written.
func (r ImportResult) Imported() int {
	return r.Created + r.Updated
}

// ImportProducts upserts rows by SKU within the tenant in one transaction.
// Rows without a name or unit, or with a min_qty storage cannot hold, are
// skipped; a row whose SKU already exists updates that product, any other
// row creates one.
func (s *inventoryService) ImportProducts(ctx context.Context, actor Actor, r io.Reader) (*ImportResult, error) {
	records, err := csvcodec.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var result ImportResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		for _, rec := range records {
			if rec.Name == "" || rec.Unit == "" || len(rec.Name) > 255 || len(rec.Unit) > 20 || len(rec.SKU) > 50 {
				result.Skipped++
				continue
			}
			minQty := rec.MinQty
			if minQty.IsNegative() {
				minQty = decimal.Zero
			}
			if !ledger.Representable(minQty) {
				result.Skipped++
				continue
			}

			if rec.SKU != "" {
				existing, err := products.FindBySKU(ctx, actor.TenantID, rec.SKU)
				switch {
				case err == nil:
					existing.Name = rec.Name
					existing.Unit = rec.Unit
					existing.MinQty = minQty
					existing.UpdatedBy = actor.UserID.String()
					if err := products.Update(ctx, existing); err != nil {
						return err
					}
					result.Updated++
					continue
				case !errors.Is(err, ErrNotFound):
					return err
				}
			}

			product := &model.Product{
				TenantID: actor.TenantID,
				SKU:      rec.SKU,
				Name:     rec.Name,
				Unit:     rec.Unit,
				MinQty:   minQty,
			}
			product.CreatedBy = actor.UserID.String()
			product.UpdatedBy = actor.UserID.String()
			if product.SKU == "" {
				sku, err := s.newSKU(ctx, products, actor.TenantID)
				if err != nil {
					return err
				}
				product.SKU = sku
			}
			if err := products.Create(ctx, product); err != nil {
				return fmt.Errorf("import line %d: %w", rec.Line, err)
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("products imported",
		zap.String("tenant_id", actor.TenantID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	if result.Imported() > 0 {
		s.notifier.Publish(actor.TenantID, ws.Event{
			Type:    ws.EventStockUpdate,
			Action:  "products_imported",
			Data:    result,
			Message: fmt.Sprintf("%s imported %d products", actor.Username, result.Imported()),
		})
	}
	return &result, nil
}

// ExportProducts writes name, unit, min_qty and derived stock for every
// product, ordered by name.
func (s *inventoryService) ExportProducts(ctx context.Context, tenantID uuid.UUID, w io.Writer) error {
	products, err := s.ListWithStock(ctx, tenantID, StockFilter{})
	if err != nil {
		return err
	}

	rows := make([]csvcodec.Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, csvcodec.Row{Name: p.Name, Unit: p.Unit, MinQty: p.MinQty, Stock: p.Stock})
	}
	return csvcodec.Write(w, rows)
}
