package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMissingSKUColumn is returned when no header matches a SKU alias.
	ErrMissingSKUColumn = errors.New("sku column not found")
)

// RowError reports a data row that was skipped. Line is 1-based and counts the header.
type RowError struct {
	Line int
	SKU  string
	Err  error
}

func (e RowError) Error() string {
	if e.SKU == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.SKU, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Result holds the accepted records and the rejected rows of one file.
type Result struct {
	Records []domain.InventoryRecord
	Errors  []RowError
}

// Rejected converts row errors for API responses.
func (r *Result) Rejected() []domain.RowRejected {
	out := make([]domain.RowRejected, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, domain.RowRejected{Line: e.Line, SKU: e.SKU, Reason: e.Err.Error()})
	}
	return out
}

// column aliases, matched after normalizeColumnName
var columnAliases = map[string][]string{
	"sku":                       {"sku", "item sku", "msku", "item code"},
	"product_name":              {"product name", "name", "product", "title"},
	"quantity":                  {"quantity", "qty", "stock", "inventory"},
	"daily_sales":               {"daily sales", "avg daily sales", "sales per day"},
	"unit_weight_kg":            {"unit weight kg", "unit weight", "weight kg", "weight"},
	"items_per_box":             {"items per box", "pcs per box", "units per carton"},
	"box_length_cm":             {"box length cm", "box length", "carton length"},
	"box_width_cm":              {"box width cm", "box width", "carton width"},
	"box_height_cm":             {"box height cm", "box height", "carton height"},
	"unit_price_cny":            {"unit price cny", "unit price", "purchase price", "factory price"},
	"shipping_unit_price_cny":   {"shipping unit price cny", "shipping price per kg", "freight per kg"},
	"material_cost_cny":         {"material cost cny", "material cost", "packaging cost"},
	"sales_price_usd":           {"sales price usd", "sales price", "selling price"},
	"last_mile_cost_usd":        {"last mile cost usd", "last mile cost", "fulfillment fee"},
	"ad_cost_usd":               {"ad cost usd", "ad cost", "ads per unit"},
	"platform_fee_rate":         {"platform fee rate", "platform fee", "referral fee"},
	"affiliate_commission_rate": {"affiliate commission rate", "affiliate commission", "affiliate rate"},
	"lifecycle":                 {"lifecycle", "stage", "lifecycle stage"},
	"lead_time_days":            {"lead time days", "lead time"},
	"safety_stock_days":         {"safety stock days", "safety stock", "safety days"},
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "(", "", ")", "", "%", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// rowReader yields raw rows and io.EOF when exhausted.
type rowReader interface {
	Read() ([]string, error)
}

// ReadFile parses a CSV or XLSX file chosen by extension.
func ReadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, filepath.Base(path))
}

// Read parses r using the extension of filename to pick the format.
func Read(r io.Reader, filename string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// ReadCSV parses inventory records from CSV with a header row.
// Input that is not valid UTF-8 is decoded as GB18030, the usual export encoding of supplier sheets.
func ReadCSV(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, simplifiedchinese.GB18030.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return parse(reader)
}

// ReadXLSX parses inventory records from the first sheet of a workbook.
func ReadXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx file has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	return parse(&xlsxRows{rows: rows})
}

type xlsxRows struct {
	rows *excelize.Rows
}

func (x *xlsxRows) Read() ([]string, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return x.rows.Columns()
}

func parse(reader rowReader) (*Result, error) {
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingSKUColumn
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := indexColumns(header)
	if _, ok := cols["sku"]; !ok {
		return nil, ErrMissingSKUColumn
	}

	result := &Result{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		rec, err := buildRecord(cols, record)
		if err == nil {
			err = Validate(rec)
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, SKU: rec.SKU, Err: err})
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// indexColumns maps canonical field names to header positions; the first matching header wins.
func indexColumns(header []string) map[string]int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeColumnName(strings.TrimPrefix(h, "\ufeff"))
	}

	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		targets := make(map[string]struct{}, len(aliases))
		for _, a := range aliases {
			targets[normalizeColumnName(a)] = struct{}{}
		}
		for i, h := range normalized {
			if _, ok := targets[h]; ok {
				cols[field] = i
				break
			}
		}
	}
	return cols
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type cells struct {
	cols   map[string]int
	record []string
	err    error
}

func (c *cells) get(field string) string {
	idx, ok := c.cols[field]
	if !ok || idx >= len(c.record) {
		return ""
	}
	return strings.TrimSpace(c.record[idx])
}

func (c *cells) float(field string) float64 {
	v := c.get(field)
	if v == "" || c.err != nil {
		return 0
	}
	v = strings.TrimSuffix(strings.ReplaceAll(v, ",", ""), "%")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.err = fmt.Errorf("%s: invalid number %q", field, c.get(field))
		return 0
	}
	return f
}

// integer rejects fractional values rather than truncating them.
func (c *cells) integer(field string) int {
	f := c.float(field)
	if c.err != nil {
		return 0
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		c.err = fmt.Errorf("%s: %q is not a whole number", field, c.get(field))
		return 0
	}
	return int(f)
}

// optionalInt returns nil for an empty cell.
func (c *cells) optionalInt(field string) *int {
	if c.get(field) == "" {
		return nil
	}
	v := c.integer(field)
	return &v
}

func buildRecord(cols map[string]int, record []string) (domain.InventoryRecord, error) {
	c := &cells{cols: cols, record: record}

	rec := domain.InventoryRecord{
		SKU:                     c.get("sku"),
		ProductName:             c.get("product_name"),
		Quantity:                c.integer("quantity"),
		DailySales:              c.float("daily_sales"),
		UnitWeightKg:            c.float("unit_weight_kg"),
		ItemsPerBox:             c.integer("items_per_box"),
		BoxLengthCm:             c.float("box_length_cm"),
		BoxWidthCm:              c.float("box_width_cm"),
		BoxHeightCm:             c.float("box_height_cm"),
		UnitPriceCNY:            c.float("unit_price_cny"),
		ShippingUnitPriceCNY:    c.float("shipping_unit_price_cny"),
		MaterialCostCNY:         c.float("material_cost_cny"),
		SalesPriceUSD:           c.float("sales_price_usd"),
		LastMileCostUSD:         c.float("last_mile_cost_usd"),
		AdCostUSD:               c.float("ad_cost_usd"),
		PlatformFeeRate:         c.float("platform_fee_rate"),
		AffiliateCommissionRate: c.float("affiliate_commission_rate"),
		Lifecycle:               domain.ParseLifecycle(c.get("lifecycle")),
		LeadTimeDays:            c.optionalInt("lead_time_days"),
		SafetyStockDays:         c.optionalInt("safety_stock_days"),
	}
	return rec, c.err
}
