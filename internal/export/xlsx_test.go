package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Additional-Code/procurement/internal/entity"
)

func TestWriteXLSX(t *testing.T) {
	orders := []entity.PurchaseOrder{
		{
			ID:           1,
			PONumber:     "PO-10001",
			Description:  "Office chairs",
			SupplierName: "Acme Supplies",
			OrderDate:    time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
			TotalAmount:  decimal.RequireFromString("1250.00"),
			Status:       entity.StatusApproved,
		},
		{
			ID:           2,
			PONumber:     "PO-10003",
			SupplierName: "PrintCo",
			OrderDate:    time.Date(2024, time.February, 9, 0, 0, 0, 0, time.UTC),
			TotalAmount:  decimal.RequireFromString("399.99"),
			Status:       entity.StatusDraft,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, orders))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])

	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "PO-10001", rows[1][1])
	assert.Equal(t, "Office chairs", rows[1][2])
	assert.Equal(t, "Acme Supplies", rows[1][3])
	assert.Equal(t, "1250.00", rows[1][5])
	assert.Equal(t, "Approved", rows[1][6])

	assert.Equal(t, "PO-10003", rows[2][1])
	assert.Equal(t, "", rows[2][2])
	assert.Equal(t, "399.99", rows[2][5])
	assert.Equal(t, "Draft", rows[2][6])
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Header, rows[0])
}
