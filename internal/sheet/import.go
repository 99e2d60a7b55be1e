package sheet

import (
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"expense-ledger/internal/models"
	"expense-ledger/internal/storage"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoWorksheet is returned for a workbook without any worksheet.
	ErrNoWorksheet = errors.New("workbook has no worksheet")
	// ErrNoAmount rejects rows where both debit and credit are zero.
	ErrNoAmount = errors.New("debit or credit amount is required")
)

// Store receives the parsed records of an import.
type Store interface {
	AddBatch(ctx context.Context, records []models.Expense) storage.BatchResult
}

// RowError ties an import failure to its spreadsheet row (1-based, the
// header being row 1).
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result reports the outcome of an import. Errors is ordered by row.
type Result struct {
	SuccessCount int
	ErrorCount   int
	Errors       []RowError
}

// Import reads the file at path (.csv, or any workbook excelize can open)
// and inserts one record per data row. Row failures are collected in the
// result; only a file that cannot be read at all returns an error.
func Import(ctx context.Context, path string, store Store) (Result, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return Result{}, err
	}
	res := ImportRows(ctx, rows, store)
	slog.InfoContext(ctx, "Import finished",
		"file", path,
		"success", res.SuccessCount,
		"errors", res.ErrorCount)
	return res, nil
}

// ReadRows returns every row of the file including the header.
func ReadRows(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSV(path)
	}
	return readWorkbook(path)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoWorksheet
	}
	// Raw values keep dates as serial numbers instead of locale formatted text.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ImportRows parses every row after the header and hands the valid records
// to store in one best-effort batch.
func ImportRows(ctx context.Context, rows [][]string, store Store) Result {
	var (
		res     Result
		records []models.Expense
		rowNums []int
	)

	for i, cells := range rows {
		if i == 0 || blank(cells) {
			continue
		}
		e, err := ParseRow(cells)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: i + 1, Err: err})
			continue
		}
		records = append(records, e)
		rowNums = append(rowNums, i+1)
	}

	if len(records) > 0 {
		batch := store.AddBatch(ctx, records)
		res.SuccessCount = batch.Inserted
		for _, f := range batch.Failed {
			res.Errors = append(res.Errors, RowError{Row: rowNums[f.Index], Err: f.Err})
		}
	}

	sortRowErrors(res.Errors)
	res.ErrorCount = len(res.Errors)
	return res
}

// ParseRow converts the six cells of a data row into a validated record.
func ParseRow(cells []string) (models.Expense, error) {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}

	date, err := parseCellDate(cell(colDate))
	if err != nil {
		return models.Expense{}, fmt.Errorf("date: %w", err)
	}
	debit, err := models.ParseAmount(cell(colDebit))
	if err != nil {
		return models.Expense{}, fmt.Errorf("debit amount %q: %w", cell(colDebit), err)
	}
	credit, err := models.ParseAmount(cell(colCredit))
	if err != nil {
		return models.Expense{}, fmt.Errorf("credit amount %q: %w", cell(colCredit), err)
	}

	e := models.Expense{
		Date:     date,
		Category: cell(colCategory),
		Debit:    debit,
		Credit:   credit,
		Source:   cell(colSource),
		Notes:    cell(colNotes),
	}
	if err := e.Validate(); err != nil {
		return models.Expense{}, err
	}
	if debit.IsZero() && credit.IsZero() {
		return models.Expense{}, ErrNoAmount
	}
	return e, nil
}

// Excel serial dates from 1900-01-01 to 9999-12-31.
const (
	minSerialDate = 1
	maxSerialDate = 2958465
)

// parseCellDate accepts date text or an Excel serial date. Numbers outside
// the serial range, such as 20240105, are not dates.
func parseCellDate(s string) (time.Time, error) {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.ParseDate(s)
	}
	if !(serial >= minSerialDate && serial < maxSerialDate+1) {
		return time.Time{}, models.ErrInvalidDate
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, models.ErrInvalidDate
	}
	return models.TruncateDay(t), nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sortRowErrors(errs []RowError) {
	slices.SortStableFunc(errs, func(a, b RowError) int { return cmp.Compare(a.Row, b.Row) })
}
