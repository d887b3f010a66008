package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type movementInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Kind      string          `json:"type" validate:"required,oneof=in out adjust"`
	Quantity  decimal.Decimal `json:"qty" validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	valid := movementInput{ProductID: uuid.New(), Kind: "in", Quantity: decimal.RequireFromString("0.5")}
	if errs := ValidateStruct(valid); len(errs) != 0 {
		t.Fatalf("expected no errors, got %s", Summary(errs))
	}

	invalid := movementInput{Kind: "transfer", Quantity: decimal.Zero}
	errs := ValidateStruct(invalid)
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %s", len(errs), Summary(errs))
	}

	fields := map[string]string{}
	for _, e := range errs {
		fields[e.FailedField] = e.Tag
	}
	want := map[string]string{"product_id": "uuid_required", "type": "oneof", "qty": "gt"}
	for field, tag := range want {
		if fields[field] != tag {
			t.Errorf("%s: got tag %q, want %q", field, fields[field], tag)
		}
	}
}

func TestNegativeDecimalFailsGt(t *testing.T) {
	in := movementInput{ProductID: uuid.New(), Kind: "out", Quantity: decimal.NewFromInt(-3)}
	errs := ValidateStruct(in)
	if len(errs) != 1 || errs[0].FailedField != "qty" {
		t.Fatalf("expected a single qty failure, got %s", Summary(errs))
	}
}
