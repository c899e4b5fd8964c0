// Package export renders purchase orders as spreadsheet workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Additional-Code/procurement/internal/entity"
)

// SheetName is the worksheet holding exported purchase orders.
const SheetName = "Purchase Orders"

// ContentType is the media type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header lists the column titles of the export sheet.
var Header = []string{"Id", "PO Number", "Description", "Supplier", "Order Date", "Total Amount", "Status"}

const (
	dateFormat = "yyyy-mm-dd"
	// built-in "#,##0.00"
	amountNumFmt = 4
)

// WriteXLSX writes orders, one per row below a bold header, as an XLSX
// workbook to w.
func WriteXLSX(w io.Writer, orders []entity.PurchaseOrder) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	dateFmt := dateFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("date style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, title := range Header {
		header[i] = title
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Header))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, po := range orders {
		row := i + 2
		if err := f.SetSheetRow(SheetName, cellName(1, row), &[]interface{}{
			po.ID, po.PONumber, po.Description, po.SupplierName, po.OrderDate.UTC(),
		}); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		// Amounts are written with a fixed precision so the stored text
		// matches the two-digit value exactly.
		if err := f.SetCellFloat(SheetName, cellName(6, row), po.TotalAmount.InexactFloat64(), 2, 64); err != nil {
			return fmt.Errorf("write amount %d: %w", row, err)
		}
		if err := f.SetCellStr(SheetName, cellName(7, row), po.Status.String()); err != nil {
			return fmt.Errorf("write status %d: %w", row, err)
		}
	}

	if n := len(orders); n > 0 {
		last := n + 1
		if err := f.SetCellStyle(SheetName, cellName(5, 2), cellName(5, last), dateStyle); err != nil {
			return fmt.Errorf("style dates: %w", err)
		}
		if err := f.SetCellStyle(SheetName, cellName(6, 2), cellName(6, last), amountStyle); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}

	widths := map[string]float64{"A": 8, "B": 16, "C": 40, "D": 28, "E": 12, "F": 16, "G": 12}
	for col, width := range widths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
