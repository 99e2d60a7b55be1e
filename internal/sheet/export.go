package sheet

import (
	"io"

	"expense-ledger/internal/models"

	"github.com/xuri/excelize/v2"
)

func buildExport(records []models.Expense) (*excelize.File, error) {
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	for i, e := range records {
		if err := setRow(f, i+2, recordRow(e)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Export writes records to w in the import layout, so an export can be
// imported again.
func Export(w io.Writer, records []models.Expense) error {
	f, err := buildExport(records)
	if err != nil {
		return err
	}
	return writeTo(f, w)
}

// ExportFile writes records to the workbook at path.
func ExportFile(path string, records []models.Expense) error {
	f, err := buildExport(records)
	if err != nil {
		return err
	}
	return saveAs(f, path)
}
