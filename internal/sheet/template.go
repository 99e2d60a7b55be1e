package sheet

import (
	"io"
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// templateRows are the example rows that show the expected format.
func templateRows(now time.Time) []models.Expense {
	return []models.Expense{
		{Date: now, Category: "Groceries", Debit: decimal.NewFromInt(50), Source: "CASH", Notes: "Monthly groceries"},
		{Date: now, Category: "Transportation", Debit: decimal.NewFromInt(30), Source: "CREDIT CARD", Notes: "Bus fare"},
	}
}

func buildTemplate(now time.Time) (*excelize.File, error) {
	f, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	for i, e := range templateRows(now) {
		if err := setRow(f, i+2, recordRow(e)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// WriteTemplate writes an import template dated now to w.
func WriteTemplate(w io.Writer, now time.Time) error {
	f, err := buildTemplate(now)
	if err != nil {
		return err
	}
	return writeTo(f, w)
}

// SaveTemplate writes an import template dated now to path.
func SaveTemplate(path string, now time.Time) error {
	f, err := buildTemplate(now)
	if err != nil {
		return err
	}
	return saveAs(f, path)
}
