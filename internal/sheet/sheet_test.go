package sheet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expense-ledger/internal/models"
	"expense-ledger/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
)

// ImportTestSuite imports files into a real ledger
type ImportTestSuite struct {
	suite.Suite
	ctx    context.Context
	dir    string
	db     *storage.DB
	ledger *storage.Ledger
}

// SetupTest runs before each test
func (suite *ImportTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.dir = suite.T().TempDir()

	db, err := storage.NewDB(filepath.Join(suite.dir, "ledger.db"))
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	suite.ledger = storage.NewLedger(db)
	require.NoError(suite.T(), suite.ledger.Initialize(suite.ctx))
}

// TearDownTest runs after each test
func (suite *ImportTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *ImportTestSuite) writeWorkbook(name string, rows [][]any) string {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(suite.dir, name)
	require.NoError(suite.T(), f.SaveAs(path))
	return path
}

func (suite *ImportTestSuite) count() int {
	all, err := suite.ledger.GetAll(suite.ctx)
	require.NoError(suite.T(), err)
	return len(all)
}

func (suite *ImportTestSuite) TestImportWithBadRow() {
	path := suite.writeWorkbook("bulk.xlsx", [][]any{
		{"Date", "Category", "Debit Amount", "Credit Amount", "Source", "Notes"},
		{"01/05/2024", "Groceries", "50.00", "0", "CASH", "weekly"},
		{"01/06/2024", "Transportation", "12", "0", "CREDIT CARD", ""},
		{"01/07/2024", "Dining Out", "twelve", "0", "CASH", "bad amount"},
		{"01/20/2024", "Salary", "0", "2000", "CASH", ""},
		{"2024-01-21", "Utilities", 80.5, 0, "CASH", "numeric cells"},
	})

	res, err := Import(suite.ctx, path, suite.ledger)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 4, res.SuccessCount)
	assert.Equal(suite.T(), 1, res.ErrorCount)
	require.Len(suite.T(), res.Errors, 1)
	assert.Equal(suite.T(), 4, res.Errors[0].Row, "header is row 1, the third data row is row 4")
	assert.ErrorIs(suite.T(), res.Errors[0], models.ErrInvalidAmount)

	assert.Equal(suite.T(), 4, suite.count())
}

func (suite *ImportTestSuite) TestImportSerialDates() {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(suite.T(), f.SetSheetRow("Sheet1", "A1", &[]any{"Date", "Category", "Debit", "Credit", "Source", "Notes"}))
	require.NoError(suite.T(), f.SetSheetRow("Sheet1", "A2", &[]any{time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), "Groceries", 10, 0, "CASH"}))
	path := filepath.Join(suite.dir, "dates.xlsx")
	require.NoError(suite.T(), f.SaveAs(path))

	res, err := Import(suite.ctx, path, suite.ledger)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 1, res.SuccessCount, "errors: %v", res.Errors)

	all, err := suite.ledger.GetAll(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 1)
	assert.Equal(suite.T(), "2024-03-09", all[0].Date.Format(models.DateLayout))
}

func (suite *ImportTestSuite) TestImportValidationErrors() {
	path := suite.writeWorkbook("invalid.xlsx", [][]any{
		{"Date", "Category", "Debit Amount", "Credit Amount", "Source", "Notes"},
		{"", "Groceries", "5", "0", "CASH"},
		{"01/05/2024", "", "5", "0", "CASH"},
		{"01/05/2024", "Groceries", "0", "0", "CASH"},
		{"01/05/2024", "Groceries", "5", "0", ""},
		{},
		{"01/05/2024", "Groceries", "-5", "0", "CASH"},
	})

	res, err := Import(suite.ctx, path, suite.ledger)
	require.NoError(suite.T(), err)

	assert.Zero(suite.T(), res.SuccessCount)
	assert.Equal(suite.T(), 5, res.ErrorCount, "blank rows are ignored")
	assert.ErrorIs(suite.T(), res.Errors[0], models.ErrMissingDate)
	assert.ErrorIs(suite.T(), res.Errors[1], models.ErrMissingCategory)
	assert.ErrorIs(suite.T(), res.Errors[2], ErrNoAmount)
	assert.ErrorIs(suite.T(), res.Errors[3], models.ErrMissingSource)
	assert.ErrorIs(suite.T(), res.Errors[4], models.ErrNegativeAmount)
	assert.Zero(suite.T(), suite.count())
}

func (suite *ImportTestSuite) TestImportOutOfRangeValuesKeepLedgerReadable() {
	res := ImportRows(suite.ctx, [][]string{
		{"Date", "Category", "Debit Amount", "Credit Amount", "Source", "Notes"},
		{"01/05/2024", "Groceries", "50", "0", "CASH"},
		{"20240105", "Groceries", "50", "0", "CASH"},
		{"01/06/2024", "Groceries", "184467440737095566.16", "0", "CASH"},
	}, suite.ledger)

	assert.Equal(suite.T(), 1, res.SuccessCount)
	require.Equal(suite.T(), 2, res.ErrorCount)
	assert.Equal(suite.T(), 3, res.Errors[0].Row)
	assert.ErrorIs(suite.T(), res.Errors[0], models.ErrInvalidDate)
	assert.Equal(suite.T(), 4, res.Errors[1].Row)
	assert.ErrorIs(suite.T(), res.Errors[1], models.ErrInvalidAmount)

	all, err := suite.ledger.GetAll(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 1)
	assert.Equal(suite.T(), "50.00", all[0].Debit.StringFixed(2))
}

func (suite *ImportTestSuite) TestImportCSV() {
	path := filepath.Join(suite.dir, "bulk.csv")
	content := strings.Join([]string{
		"Date,Category,Debit Amount,Credit Amount,Source,Notes",
		"2024-01-05,Groceries,50,0,CASH,",
		"2024-01-20,Salary,0,\"2000,00\",CASH,january",
	}, "\n")
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o644))

	res, err := Import(suite.ctx, path, suite.ledger)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, res.SuccessCount)
	assert.Zero(suite.T(), res.ErrorCount)

	balance, err := suite.ledger.GetTotalBalance(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "1950.00", balance.StringFixed(2))
}

func (suite *ImportTestSuite) TestImportMissingFile() {
	_, err := Import(suite.ctx, filepath.Join(suite.dir, "missing.xlsx"), suite.ledger)
	assert.Error(suite.T(), err)
	assert.Zero(suite.T(), suite.count())
}

func (suite *ImportTestSuite) TestTemplateRoundTrip() {
	now := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	path := filepath.Join(suite.dir, "ExpenseTemplate.xlsx")
	require.NoError(suite.T(), SaveTemplate(path, now))

	rows, err := ReadRows(path)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), rows, 3, "header plus two example rows")
	assert.Equal(suite.T(), Header, rows[0])

	res, err := Import(suite.ctx, path, suite.ledger)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, res.SuccessCount)

	all, err := suite.ledger.GetAll(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 2)
	assert.Equal(suite.T(), "Groceries", all[0].Category)
	assert.Equal(suite.T(), "50.00", all[0].Debit.StringFixed(2))
	assert.Equal(suite.T(), "CREDIT CARD", all[1].Source)
	assert.Equal(suite.T(), "2024-06-01", all[1].Date.Format(models.DateLayout))
}

func (suite *ImportTestSuite) TestExportReimport() {
	_, err := Import(suite.ctx, suite.writeWorkbook("seed.xlsx", [][]any{
		{"Date", "Category", "Debit Amount", "Credit Amount", "Source", "Notes"},
		{"01/05/2024", "Groceries", "50.00", "0", "CASH", "weekly"},
		{"01/20/2024", "Salary", "0", "2000", "CASH", ""},
	}), suite.ledger)
	require.NoError(suite.T(), err)

	records, err := suite.ledger.GetAll(suite.ctx)
	require.NoError(suite.T(), err)

	path := filepath.Join(suite.dir, "export.xlsx")
	require.NoError(suite.T(), ExportFile(path, records))

	rows, err := ReadRows(path)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), rows, 3)
	assert.Equal(suite.T(), []string{"01/20/2024", "Salary", "0.00", "2000.00", "CASH"}, rows[1][:5])

	res, err := Import(suite.ctx, path, suite.ledger)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, res.SuccessCount)
	assert.Equal(suite.T(), 4, suite.count())
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	value, err := f.GetCellValue(SheetName, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Transportation", value)
}

func TestParseRow(t *testing.T) {
	e, err := ParseRow([]string{" 01/05/2024 ", "Groceries", "50,5", "", "CASH"})
	require.NoError(t, err)
	assert.Equal(t, "50.50", e.Debit.StringFixed(2))
	assert.True(t, e.Credit.IsZero())
	assert.Empty(t, e.Notes)

	// 45296 is 2024-01-05 in the 1900 date system.
	e, err = ParseRow([]string{"45296", "Groceries", "1", "0", "CASH"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", e.Date.Format(models.DateLayout))

	_, err = ParseRow([]string{"not a date", "Groceries", "1", "0", "CASH"})
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	for _, serial := range []string{"20240105", "0", "-3", "NaN", "2958466"} {
		_, err = ParseRow([]string{serial, "Groceries", "1", "0", "CASH"})
		assert.ErrorIs(t, err, models.ErrInvalidDate, serial)
	}

	_, err = ParseRow([]string{"01/05/2024", "Groceries", "1,234", "0", "CASH"})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestImportSuite(t *testing.T) {
	suite.Run(t, new(ImportTestSuite))
}
