package ledger

import (
	"errors"
	"testing"

	"cafe-stock/internal/model"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestContribution(t *testing.T) {
	tests := []struct {
		name string
		kind model.MovementKind
		qty  string
		want string
	}{
		{"in adds", model.MovementIn, "5", "5"},
		{"out subtracts", model.MovementOut, "5", "-5"},
		{"adjust positive delta", model.MovementAdjust, "2.5", "2.5"},
		{"adjust negative delta", model.MovementAdjust, "-5", "-5"},
		{"unknown kind is ignored", model.MovementKind("transfer"), "5", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Contribution(tt.kind, d(tt.qty))
			if !got.Equal(d(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSumMovementsIsOrderIndependent(t *testing.T) {
	movements := []model.StockMovement{
		{Kind: model.MovementIn, Quantity: d("20")},
		{Kind: model.MovementOut, Quantity: d("12")},
		{Kind: model.MovementAdjust, Quantity: d("-5")},
		{Kind: model.MovementIn, Quantity: d("0.75")},
	}
	reversed := make([]model.StockMovement, len(movements))
	for i, m := range movements {
		reversed[len(movements)-1-i] = m
	}

	first := SumMovements(movements)
	if !first.Equal(d("3.75")) {
		t.Fatalf("sum: got %s, want 3.75", first)
	}
	if again := SumMovements(movements); !again.Equal(first) {
		t.Errorf("recomputed sum changed: %s vs %s", again, first)
	}
	if rev := SumMovements(reversed); !rev.Equal(first) {
		t.Errorf("reversed order: got %s, want %s", rev, first)
	}
	if empty := SumMovements(nil); !empty.IsZero() {
		t.Errorf("empty ledger: got %s, want 0", empty)
	}
}

func TestRepresentable(t *testing.T) {
	tests := []struct {
		qty  string
		want bool
	}{
		{"0", true},
		{"12.3456", true},
		{"12.34560000", true},
		{"9999999999.9999", true},
		{"12.34567", false},
		{"10000000000", false},
		{"-10000000000", false},
		{"12345678901234.56789", false},
	}
	for _, tt := range tests {
		if got := Representable(d(tt.qty)); got != tt.want {
			t.Errorf("Representable(%s) = %v, want %v", tt.qty, got, tt.want)
		}
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name      string
		kind      model.MovementKind
		requested string
		current   string
		want      string
		wantErr   error
	}{
		{"in is unconditional", model.MovementIn, "20", "0", "20", nil},
		{"out within stock", model.MovementOut, "12", "20", "12", nil},
		{"out of exactly all stock", model.MovementOut, "8", "8", "8", nil},
		{"out above stock", model.MovementOut, "10", "8", "0", ErrInsufficientStock},
		{"adjust down stores negative delta", model.MovementAdjust, "3", "8", "-5", nil},
		{"adjust up stores positive delta", model.MovementAdjust, "10.5", "8", "2.5", nil},
		{"adjust to current level", model.MovementAdjust, "8", "8", "0", ErrNoChange},
		{"adjust with equal decimal scale", model.MovementAdjust, "8.00", "8", "0", ErrNoChange},
		{"zero quantity", model.MovementIn, "0", "0", "0", ErrInvalidQuantity},
		{"negative quantity", model.MovementOut, "-1", "5", "0", ErrInvalidQuantity},
		{"unknown kind", model.MovementKind("move"), "1", "5", "0", ErrUnknownKind},
		{"too many decimal places", model.MovementIn, "0.00001", "0", "0", ErrQuantityOutOfRange},
		{"target beyond storage range", model.MovementAdjust, "12345678901234.56789", "0", "0", ErrQuantityOutOfRange},
		{"in pushing stock past range", model.MovementIn, "5000000000", "5000000000", "0", ErrQuantityOutOfRange},
		{"in up to just below range", model.MovementIn, "4999999999.9999", "5000000000", "4999999999.9999", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(tt.kind, d(tt.requested), d(tt.current))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("stored qty: got %s, want %s", got, tt.want)
			}
		})
	}
}

// After an adjust the folded stock equals the requested target.
func TestPlanAdjustReachesTarget(t *testing.T) {
	movements := []model.StockMovement{
		{Kind: model.MovementIn, Quantity: d("20")},
		{Kind: model.MovementOut, Quantity: d("12")},
	}
	current := SumMovements(movements)

	delta, err := Plan(model.MovementAdjust, d("3"), current)
	if err != nil {
		t.Fatalf("plan adjust: %v", err)
	}
	movements = append(movements, model.StockMovement{Kind: model.MovementAdjust, Quantity: delta})

	if got := SumMovements(movements); !got.Equal(d("3")) {
		t.Errorf("stock after adjust: got %s, want 3", got)
	}
}
