package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

// Format is a procurement export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	SheetName = "Procurement"
)

// ErrUnknownFormat is returned for export formats other than csv and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

var header = []string{
	"SKU",
	"Product Name",
	"Suggested Qty",
	"Unit Price (CNY)",
	"Total Amount (CNY)",
	"Strategy",
	"Remark",
}

// ParseFormat accepts "csv" or "xlsx" in any case; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatXLSX):
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// line is one procurement row with money kept as decimals until rendering.
type line struct {
	sku      string
	name     string
	qty      int64
	price    decimal.Decimal
	amount   decimal.Decimal
	strategy string
	remark   string
}

// buildLines returns the exported rows plus the totals.
func buildLines(suggestions []domain.ReplenishmentSuggestion) ([]line, int64, decimal.Decimal) {
	var (
		lines    []line
		totalQty int64
		total    = decimal.Zero
	)
	for _, s := range suggestions {
		if s.SuggestedQty <= 0 {
			continue
		}
		price := decimal.NewFromFloat(s.UnitPriceCNY)
		amount := price.Mul(decimal.NewFromInt(int64(s.SuggestedQty)))

		lines = append(lines, line{
			sku:      s.SKU,
			name:     s.ProductName,
			qty:      int64(s.SuggestedQty),
			price:    price,
			amount:   amount,
			strategy: s.StrategyLabel,
			remark:   Remark(s),
		})
		totalQty += int64(s.SuggestedQty)
		total = total.Add(amount)
	}
	return lines, totalQty, total
}

// Remark explains why a row is on the sheet.
func Remark(s domain.ReplenishmentSuggestion) string {
	cover := formatCover(s.CurrentDays)
	if s.IsUrgent {
		return fmt.Sprintf("urgent: %s days cover < %d days threshold", cover, s.ReorderThresholdDays)
	}
	return fmt.Sprintf("cover %s days", cover)
}

func formatCover(d domain.Days) string {
	if d.IsInfinite() {
		return "∞"
	}
	return decimal.NewFromFloat(float64(d)).StringFixed(1)
}

// Write renders suggestions in the requested format.
func Write(w io.Writer, format Format, suggestions []domain.ReplenishmentSuggestion) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, suggestions)
	case FormatXLSX:
		return WriteXLSX(w, suggestions)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteCSV writes the procurement sheet as CSV with a trailing total row.
func WriteCSV(w io.Writer, suggestions []domain.ReplenishmentSuggestion) error {
	lines, totalQty, total := buildLines(suggestions)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, l := range lines {
		record := []string{
			l.sku,
			l.name,
			strconv.FormatInt(l.qty, 10),
			l.price.StringFixed(2),
			l.amount.StringFixed(2),
			l.strategy,
			l.remark,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", l.sku, err)
		}
	}
	if err := cw.Write([]string{"TOTAL", "", strconv.FormatInt(totalQty, 10), "", total.StringFixed(2), "", ""}); err != nil {
		return fmt.Errorf("failed to write csv total: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the procurement sheet as a single-sheet workbook.
func WriteXLSX(w io.Writer, suggestions []domain.ReplenishmentSuggestion) error {
	lines, totalQty, total := buildLines(suggestions)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for i, l := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			l.sku,
			l.name,
			l.qty,
			l.price.Round(2).InexactFloat64(),
			l.amount.Round(2).InexactFloat64(),
			l.strategy,
			l.remark,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write xlsx row %s: %w", l.sku, err)
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, len(lines)+2)
	if err != nil {
		return err
	}
	totalRow := []interface{}{"TOTAL", "", totalQty, "", total.Round(2).InexactFloat64()}
	if err := f.SetSheetRow(SheetName, cell, &totalRow); err != nil {
		return fmt.Errorf("failed to write xlsx total: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
