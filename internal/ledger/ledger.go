// Package ledger holds the pure stock arithmetic: how a movement contributes
// to stock, how stock folds out of the movement log, and what quantity a
// requested movement stores.
package ledger

import (
	"errors"

	"cafe-stock/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be greater than 0")
	ErrQuantityOutOfRange = errors.New("quantity must have at most 4 decimal places and stay below 10000000000")
	ErrUnknownKind        = errors.New("movement type must be one of in, out, adjust")
	ErrInsufficientStock  = errors.New("insufficient stock remaining")
	ErrNoChange           = errors.New("stock level is unchanged")
)

// Quantities are stored as decimal(20,4). Keeping them to 4 places and
// under MaxQuantity also keeps them within 15 significant digits, which
// SQLite's REAL storage reads back exactly.
const MaxScale = 4

var MaxQuantity = decimal.New(1, 10)

// Representable reports whether q survives a round trip through storage.
func Representable(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(MaxScale)) && q.Abs().LessThan(MaxQuantity)
}

// Contribution is the signed effect of one stored movement on stock.
func Contribution(kind model.MovementKind, qty decimal.Decimal) decimal.Decimal {
	switch kind {
	case model.MovementIn, model.MovementAdjust:
		return qty
	case model.MovementOut:
		return qty.Neg()
	default:
		return decimal.Zero
	}
}

// SumMovements folds stored movements into a stock level.
func SumMovements(movements []model.StockMovement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(Contribution(m.Kind, m.Quantity))
	}
	return total
}

// Plan returns the quantity to store for a requested movement given the
// current stock. requested is always a positive magnitude; for adjust it is
// the target level and the stored value is the delta to reach it. The
// resulting stock must stay Representable.
func Plan(kind model.MovementKind, requested, current decimal.Decimal) (decimal.Decimal, error) {
	if !kind.Valid() {
		return decimal.Zero, ErrUnknownKind
	}
	if !requested.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}
	if !Representable(requested) {
		return decimal.Zero, ErrQuantityOutOfRange
	}

	switch kind {
	case model.MovementIn:
		if !Representable(current.Add(requested)) {
			return decimal.Zero, ErrQuantityOutOfRange
		}
		return requested, nil
	case model.MovementOut:
		if requested.GreaterThan(current) {
			return decimal.Zero, ErrInsufficientStock
		}
		return requested, nil
	case model.MovementAdjust:
		delta := requested.Sub(current)
		if delta.IsZero() {
			return decimal.Zero, ErrNoChange
		}
		return delta, nil
	default:
		return decimal.Zero, ErrUnknownKind
	}
}
