package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical on-disk representation of an expense date.
const DateLayout = "2006-01-02"

// Dates must have a four digit year to round-trip through DateLayout.
const (
	MinYear = 1
	MaxYear = 9999
)

// MaxAmount bounds a single debit or credit. Summing the cents of millions of
// maximal records still fits in an int64.
var MaxAmount = decimal.New(1_000_000_000, 0)

var (
	ErrMissingDate     = errors.New("date is required")
	ErrMissingCategory = errors.New("category is required")
	ErrMissingSource   = errors.New("source is required")
	ErrNegativeAmount  = errors.New("amounts cannot be negative")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
)

// Expense represents a single ledger record. A record with Debit > 0 is an
// expense, one with Credit > 0 is income; both are summed independently.
type Expense struct {
	ID       int64           `json:"id"`
	Date     time.Time       `json:"date"`
	Category string          `json:"category"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
	Source   string          `json:"source"`
	Notes    string          `json:"notes,omitempty"`
}

// Validate checks the required fields before a record is sent to the store.
func (e *Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if y := e.Date.Year(); y < MinYear || y > MaxYear {
		return ErrInvalidDate
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(e.Source) == "" {
		return ErrMissingSource
	}
	if e.Debit.IsNegative() || e.Credit.IsNegative() {
		return ErrNegativeAmount
	}
	if e.Debit.GreaterThan(MaxAmount) || e.Credit.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// Day returns the calendar date of the record with the clock part dropped.
func (e *Expense) Day() time.Time {
	return TruncateDay(e.Date)
}

// TruncateDay drops the time of day, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ToCents converts an amount to integer cents, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ParseAmount parses a non-negative monetary amount of at most two decimals.
// Both "12.34" and "12,34" are accepted; an empty string is zero. "1,234" is
// rejected rather than read as 1.23.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	if !d.Equal(d.Truncate(2)) {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

var dateLayouts = []string{
	DateLayout,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses a calendar date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TruncateDay(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// Filter narrows a ledger query. Nil fields impose no constraint.
type Filter struct {
	Year     *int
	Month    *int
	Category *string
	Source   *string
}

// IsEmpty reports whether the filter imposes no constraint at all.
func (f Filter) IsEmpty() bool {
	return f.Year == nil && f.Month == nil && !hasText(f.Category) && !hasText(f.Source)
}

// Matches applies the filter to an in-memory record.
func (f Filter) Matches(e Expense) bool {
	if f.Year != nil && e.Date.Year() != *f.Year {
		return false
	}
	if f.Month != nil && int(e.Date.Month()) != *f.Month {
		return false
	}
	if hasText(f.Category) && e.Category != *f.Category {
		return false
	}
	if hasText(f.Source) && e.Source != *f.Source {
		return false
	}
	return true
}

func hasText(s *string) bool {
	return s != nil && *s != ""
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
