package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

const expenseColumns = "id, date, category, debit_cents, credit_cents, source, notes"

// Ledger is the repository for expense and income records.
type Ledger struct {
	db *DB
}

// NewLedger creates a ledger repository on top of db.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db}
}

// Initialize ensures the expenses table exists. Safe to call on every start.
func (l *Ledger) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.db.migrate(ledgerMigrations)
}

// Add validates and inserts a record, setting its ID on success.
func (l *Ledger) Add(ctx context.Context, e *models.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	e.Date = e.Day()
	debit, credit := models.ToCents(e.Debit), models.ToCents(e.Credit)

	result, err := l.db.conn.ExecContext(ctx,
		"INSERT INTO expenses (date, category, debit_cents, credit_cents, source, notes) VALUES (?, ?, ?, ?, ?, ?)",
		e.Date.Format(models.DateLayout), e.Category, debit, credit, e.Source, e.Notes,
	)
	if err != nil {
		return storageErr("insert expense", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storageErr("insert expense", err)
	}
	e.ID = id
	e.Debit, e.Credit = models.FromCents(debit), models.FromCents(credit)

	slog.DebugContext(ctx, "Expense saved",
		"id", e.ID,
		"date", e.Date.Format(models.DateLayout),
		"category", e.Category,
		"debit_cents", debit,
		"credit_cents", credit,
		"source", e.Source)
	return nil
}

// BatchError records why the record at Index could not be inserted.
type BatchError struct {
	Index int
	Err   error
}

// BatchResult summarises a best-effort bulk insert.
type BatchResult struct {
	Inserted int
	Failed   []BatchError
}

// AddBatch inserts every record independently. A failing record is counted
// and skipped; it never aborts the remaining ones. IDs are set in place.
func (l *Ledger) AddBatch(ctx context.Context, records []models.Expense) BatchResult {
	var res BatchResult
	for i := range records {
		if err := l.Add(ctx, &records[i]); err != nil {
			res.Failed = append(res.Failed, BatchError{Index: i, Err: err})
			continue
		}
		res.Inserted++
	}
	if len(res.Failed) > 0 {
		slog.WarnContext(ctx, "Bulk insert finished with errors",
			"inserted", res.Inserted,
			"failed", len(res.Failed))
	}
	return res
}

// GetAll returns every record, newest date first. Records sharing a date
// keep their insertion order.
func (l *Ledger) GetAll(ctx context.Context) ([]models.Expense, error) {
	return l.GetFiltered(ctx, models.Filter{})
}

// GetFiltered returns the records matching every supplied filter, newest
// date first.
func (l *Ledger) GetFiltered(ctx context.Context, f models.Filter) ([]models.Expense, error) {
	query, args := filterQuery(f)

	rows, err := l.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query expenses", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, storageErr("scan expense", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query expenses", err)
	}
	return expenses, nil
}

// filterQuery builds one parameterised SELECT from zero to four optional
// predicates joined with AND.
func filterQuery(f models.Filter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if f.Year != nil {
		conditions = append(conditions, "strftime('%Y', date) = ?")
		args = append(args, fmt.Sprintf("%04d", *f.Year))
	}
	if f.Month != nil {
		conditions = append(conditions, "strftime('%m', date) = ?")
		args = append(args, fmt.Sprintf("%02d", *f.Month))
	}
	if f.Category != nil && *f.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, *f.Category)
	}
	if f.Source != nil && *f.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, *f.Source)
	}

	var b strings.Builder
	b.WriteString("SELECT " + expenseColumns + " FROM expenses")
	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY date DESC, id ASC")
	return b.String(), args
}

func scanExpense(rows *sql.Rows) (models.Expense, error) {
	var (
		e             models.Expense
		date          string
		debit, credit int64
	)
	if err := rows.Scan(&e.ID, &date, &e.Category, &debit, &credit, &e.Source, &e.Notes); err != nil {
		return e, err
	}
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return e, fmt.Errorf("expense %d: parse date %q: %w", e.ID, date, err)
	}
	e.Date = d
	e.Debit = models.FromCents(debit)
	e.Credit = models.FromCents(credit)
	return e, nil
}

// GetTotalBalance returns sum(credit) - sum(debit) over all records, zero
// for an empty ledger.
func (l *Ledger) GetTotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var cents int64
	err := l.db.conn.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(credit_cents), 0) - COALESCE(SUM(debit_cents), 0) FROM expenses",
	).Scan(&cents)
	if err != nil {
		return decimal.Zero, storageErr("total balance", err)
	}
	return models.FromCents(cents), nil
}

// Categories returns the distinct categories in use, sorted.
func (l *Ledger) Categories(ctx context.Context) ([]string, error) {
	return l.distinct(ctx, "category")
}

// Sources returns the distinct sources in use, sorted.
func (l *Ledger) Sources(ctx context.Context) ([]string, error) {
	return l.distinct(ctx, "source")
}

// column is always one of the fixed names above, never caller input.
func (l *Ledger) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := l.db.conn.QueryContext(ctx,
		"SELECT DISTINCT "+column+" FROM expenses ORDER BY "+column)
	if err != nil {
		return nil, storageErr("list "+column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, storageErr("list "+column, err)
		}
		values = append(values, v)
	}
	return values, storageErr("list "+column, rows.Err())
}

// Years returns the distinct years that have records, newest first.
func (l *Ledger) Years(ctx context.Context) ([]int, error) {
	rows, err := l.db.conn.QueryContext(ctx,
		"SELECT DISTINCT CAST(strftime('%Y', date) AS INTEGER) AS year FROM expenses ORDER BY year DESC")
	if err != nil {
		return nil, storageErr("list years", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, storageErr("list years", err)
		}
		years = append(years, y)
	}
	return years, storageErr("list years", rows.Err())
}
