package csvcodec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWriteQuotesSpecialFields(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{
		{Name: `Cafe, "Blend"`, Unit: "kg", MinQty: decimal.NewFromInt(2), Stock: decimal.RequireFromString("4.5")},
		{Name: "Milk", Unit: "L", MinQty: decimal.NewFromInt(5), Stock: decimal.NewFromInt(8)},
	}
	if err := Write(&buf, rows); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := "name,unit,min_qty,stock\n" +
		`"Cafe, ""Blend""",kg,2,4.5` + "\n" +
		"Milk,L,5,8\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "name,unit,min_qty,stock\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestParse(t *testing.T) {
	input := "\ufeffSKU, Name ,unit,min_qty\n" +
		"PRD-1,  Milk  ,L,5\n" +
		"\n" +
		",Sugar,kg,abc\n" +
		"PRD-3,,pcs,1\n" +
		`,"Cafe, ""Blend""",kg,2.5` + "\n"

	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d: %+v", len(records), records)
	}

	tests := []struct {
		sku, name, unit, minQty string
	}{
		{"PRD-1", "Milk", "L", "5"},
		{"", "Sugar", "kg", "0"},
		{"PRD-3", "", "pcs", "1"},
		{"", `Cafe, "Blend"`, "kg", "2.5"},
	}
	for i, tt := range tests {
		r := records[i]
		if r.SKU != tt.sku || r.Name != tt.name || r.Unit != tt.unit {
			t.Errorf("record %d: got %+v", i, r)
		}
		if !r.MinQty.Equal(decimal.RequireFromString(tt.minQty)) {
			t.Errorf("record %d min_qty: got %s, want %s", i, r.MinQty, tt.minQty)
		}
	}
}

func TestParseMissingColumns(t *testing.T) {
	records, err := Parse(strings.NewReader("name,unit\nBeans,kg\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 || records[0].SKU != "" || !records[0].MinQty.IsZero() {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("got %v, want ErrMissingHeader", err)
	}
}
