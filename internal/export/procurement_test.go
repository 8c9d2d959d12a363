package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
)

func sampleSuggestions() []domain.ReplenishmentSuggestion {
	return []domain.ReplenishmentSuggestion{
		{
			SKU: "A-1", ProductName: "Lamp", SuggestedQty: 400, UnitPriceCNY: 12.5,
			IsUrgent: true, CurrentDays: 10, ReorderThresholdDays: 45, StrategyLabel: "Manual (90d)",
		},
		{
			SKU: "B-2", ProductName: "Overstock", SuggestedQty: 0, UnitPriceCNY: 3,
			IsUrgent: true, CurrentDays: 20, ReorderThresholdDays: 45,
		},
		{
			SKU: "C-3", ProductName: "Mug", SuggestedQty: 3, UnitPriceCNY: 0.1,
			IsUrgent: true, CurrentDays: 1.25, ReorderThresholdDays: 60, StrategyLabel: "Growth Push",
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestRemark(t *testing.T) {
	assert.Equal(t, "urgent: 10.0 days cover < 45 days threshold",
		Remark(domain.ReplenishmentSuggestion{IsUrgent: true, CurrentDays: 10, ReorderThresholdDays: 45}))
	assert.Equal(t, "cover ∞ days",
		Remark(domain.ReplenishmentSuggestion{CurrentDays: domain.NoDepletion}))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSuggestions()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"A-1", "Lamp", "400", "12.50", "5000.00", "Manual (90d)",
		"urgent: 10.0 days cover < 45 days threshold"}, rows[1])
	assert.Equal(t, "C-3", rows[2][0])
	assert.Equal(t, "0.30", rows[2][4])
	assert.Equal(t, []string{"TOTAL", "", "403", "", "5000.30", "", ""}, rows[3])
}

func TestWriteCSVEmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "0.00", rows[1][4])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleSuggestions()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "A-1", rows[1][0])
	assert.Equal(t, "400", rows[1][2])
	assert.Equal(t, "TOTAL", rows[3][0])
	assert.Equal(t, "403", rows[3][2])
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("pdf"), nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
