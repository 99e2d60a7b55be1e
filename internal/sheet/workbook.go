// Package sheet reads and writes the six-column spreadsheet layout used for
// bulk import, the import template and ledger exports.
package sheet

import (
	"fmt"
	"io"

	"expense-ledger/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by this package. Imports read the first
// worksheet whatever its name.
const SheetName = "Expenses"

// CellDateLayout is how dates are written to generated workbooks.
const CellDateLayout = "01/02/2006"

// Header is the fixed column order of every workbook.
var Header = []string{"Date (MM/DD/YYYY)", "Category", "Debit Amount", "Credit Amount", "Source", "Notes"}

const (
	colDate = iota
	colCategory
	colDebit
	colCredit
	colSource
	colNotes
)

// newWorkbook creates a workbook with a styled header row.
func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", "F1", style); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "A", "F", 18); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &values)
}

func recordRow(e models.Expense) []any {
	return []any{
		e.Date.Format(CellDateLayout),
		e.Category,
		e.Debit.StringFixed(2),
		e.Credit.StringFixed(2),
		e.Source,
		e.Notes,
	}
}

func writeTo(f *excelize.File, w io.Writer) error {
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func saveAs(f *excelize.File, path string) error {
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
