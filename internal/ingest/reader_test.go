package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

const sampleCSV = `SKU,Product Name,Qty,Daily_Sales,Unit Price (CNY),Items per box,Stage,Lead Time,Safety Stock Days,Platform Fee %
A-1,Desk Lamp,"1,200",12.5,25,20,growth,21,
B-2,Mug,50,0,3.5,0,,,10,15
,No SKU,10,1,1,1,New,,,
C-3,Bad Qty,-5,1,1,1,New,,,
D-4,Bad Number,abc,1,1,1,New,,,
,,,,,,,,,
E-5,Bad Rate,1,1,1,1,New,,,150
`

func TestReadCSV(t *testing.T) {
	res, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	a := res.Records[0]
	assert.Equal(t, "A-1", a.SKU)
	assert.Equal(t, "Desk Lamp", a.ProductName)
	assert.Equal(t, 1200, a.Quantity)
	assert.Equal(t, 12.5, a.DailySales)
	assert.Equal(t, 25.0, a.UnitPriceCNY)
	assert.Equal(t, 20, a.ItemsPerBox)
	assert.Equal(t, domain.LifecycleGrowth, a.Lifecycle)
	require.NotNil(t, a.LeadTimeDays)
	assert.Equal(t, 21, *a.LeadTimeDays)
	assert.Nil(t, a.SafetyStockDays)

	b := res.Records[1]
	assert.Equal(t, domain.LifecycleNew, b.Lifecycle)
	assert.Equal(t, 0, b.ItemsPerBox)
	assert.Nil(t, b.LeadTimeDays)
	require.NotNil(t, b.SafetyStockDays)
	assert.Equal(t, 10, *b.SafetyStockDays)
	assert.Equal(t, 15.0, b.PlatformFeeRate)

	require.Len(t, res.Errors, 4)
	assert.Equal(t, 4, res.Errors[0].Line)
	assert.Contains(t, res.Errors[0].Error(), "sku is required")
	assert.Equal(t, "C-3", res.Errors[1].SKU)
	assert.Contains(t, res.Errors[1].Error(), "quantity must be at least 0")
	assert.Equal(t, "D-4", res.Errors[2].SKU)
	assert.Contains(t, res.Errors[2].Error(), "invalid number")
	assert.Equal(t, 8, res.Errors[3].Line)
	assert.Contains(t, res.Errors[3].Error(), "platform_fee_rate must be at most 100")

	rejected := res.Rejected()
	require.Len(t, rejected, 4)
	assert.Equal(t, "C-3", rejected[1].SKU)
}

func TestReadCSVMissingSKUColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("name,qty\nLamp,1\n"))
	assert.True(t, errors.Is(err, ErrMissingSKUColumn))

	_, err = ReadCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingSKUColumn))
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"sku", "name", "stock", "daily sales", "lifecycle"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"X-1", "Cable", 40, 2, "Clearance"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"X-2", "Plug", 5, 0.5, "Stable"}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := Read(&buf, "upload.XLSX")
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Errors)

	assert.Equal(t, "X-1", res.Records[0].SKU)
	assert.Equal(t, 40, res.Records[0].Quantity)
	assert.Equal(t, domain.LifecycleClearance, res.Records[0].Lifecycle)
	assert.Equal(t, 0.5, res.Records[1].DailySales)
}

func TestReadUnsupportedFormat(t *testing.T) {
	_, err := Read(strings.NewReader(""), "stock.pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestNormalizeColumnName(t *testing.T) {
	assert.Equal(t, "unitpricecny", normalizeColumnName(" Unit Price (CNY) "))
	assert.Equal(t, "dailysales", normalizeColumnName("daily_sales"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(domain.InventoryRecord{SKU: "A"}))

	neg := -1
	err := Validate(domain.InventoryRecord{SKU: "A", LeadTimeDays: &neg, AffiliateCommissionRate: 101})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lead_time_days must be at least 0")
	assert.Contains(t, err.Error(), "affiliate_commission_rate must be at most 100")
}

func TestReadCSVDecodesGBK(t *testing.T) {
	encoded, _, err := transform.String(simplifiedchinese.GBK.NewEncoder(), "SKU,Product Name,Qty\nA-1,台灯,5\n")
	require.NoError(t, err)

	res, err := ReadCSV(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "台灯", res.Records[0].ProductName)
	assert.Equal(t, 5, res.Records[0].Quantity)
}

func TestReadCSVRejectsFractionalCounts(t *testing.T) {
	body := "SKU,Qty,Items per box,Lead Time,Safety Stock Days\n" +
		"OK,10,12,30,15.0\n" +
		"BOX,10,2.7,,\n" +
		"QTY,10.5,1,,\n" +
		"LEAD,10,1,7.5,\n" +
		"SAFE,10,1,,0.25\n"

	res, err := ReadCSV(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "OK", res.Records[0].SKU)
	require.NotNil(t, res.Records[0].SafetyStockDays)
	assert.Equal(t, 15, *res.Records[0].SafetyStockDays)

	require.Len(t, res.Errors, 4)
	want := []string{"items_per_box", "quantity", "lead_time_days", "safety_stock_days"}
	for i, field := range want {
		assert.Contains(t, res.Errors[i].Error(), field)
		assert.Contains(t, res.Errors[i].Error(), "not a whole number")
	}
	assert.Equal(t, 3, res.Errors[0].Line)
}
