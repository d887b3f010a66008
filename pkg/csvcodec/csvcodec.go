// Package csvcodec reads product import files and writes product exports.
package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMissingHeader = errors.New("csv header row is missing")

// ExportHeader is the first line of every export.
var ExportHeader = []string{"name", "unit", "min_qty", "stock"}

// Record is one import row. Columns absent from the file are empty.
type Record struct {
	Line   int
	SKU    string
	Name   string
	Unit   string
	MinQty decimal.Decimal
}

// Row is one export line.
type Row struct {
	Name   string
	Unit   string
	MinQty decimal.Decimal
	Stock  decimal.Decimal
}

// Parse reads a header row followed by data rows. Header names are matched
// case-insensitively, values are trimmed, blank lines are skipped and a
// min_qty that is not a number reads as zero.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var records []Record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if blank(fields) {
			continue
		}

		line, _ := reader.FieldPos(0)
		get := func(col string) string {
			i, ok := columns[col]
			if !ok || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		records = append(records, Record{
			Line:   line,
			SKU:    get("sku"),
			Name:   get("name"),
			Unit:   get("unit"),
			MinQty: parseQty(get("min_qty")),
		})
	}
	return records, nil
}

// Write emits the export header and rows. Fields holding a comma, quote or
// newline are quoted with embedded quotes doubled.
func Write(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{row.Name, row.Unit, row.MinQty.String(), row.Stock.String()}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseQty(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
