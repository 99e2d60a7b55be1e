// Package report derives aggregate views from ledger records that have
// already been loaded from the store. Every function is pure and its output
// order is deterministic.
package report

import (
	"cmp"
	"slices"
	"time"

	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Labels used when a record has no source or category.
const (
	OtherSource        = "Other"
	UncategorizedLabel = "Uncategorized"
)

// Breakdown is the debit total of one group.
type Breakdown struct {
	Name  string
	Total decimal.Decimal
}

// MonthTotal holds debit and credit sums for one calendar month.
type MonthTotal struct {
	Year   int
	Month  time.Month
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Label formats the month as YYYY-MM.
func (m MonthTotal) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Summary holds ledger totals. Net is Credit - Debit.
type Summary struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
	Net    decimal.Decimal
	Count  int
}

// Balance is the running credit - debit of one source.
type Balance struct {
	Source  string
	Balance decimal.Decimal
}

// BySource sums debits per source, drops empty groups and orders the rest
// by total, largest first.
func BySource(records []models.Expense) []Breakdown {
	return breakdown(records, func(e models.Expense) string {
		if e.Source == "" {
			return OtherSource
		}
		return e.Source
	})
}

// ByCategory sums debits per category, like BySource.
func ByCategory(records []models.Expense) []Breakdown {
	return breakdown(records, func(e models.Expense) string {
		if e.Category == "" {
			return UncategorizedLabel
		}
		return e.Category
	})
}

func breakdown(records []models.Expense, key func(models.Expense) string) []Breakdown {
	sums := make(map[string]decimal.Decimal)
	for _, e := range records {
		k := key(e)
		sums[k] = sums[k].Add(e.Debit)
	}

	out := make([]Breakdown, 0, len(sums))
	for name, total := range sums {
		if total.IsZero() {
			continue
		}
		out = append(out, Breakdown{Name: name, Total: total})
	}
	// Equal totals fall back to the name so the order never depends on map iteration.
	slices.SortFunc(out, func(a, b Breakdown) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// MonthlyTrend sums debits and credits per calendar month, oldest first.
func MonthlyTrend(records []models.Expense) []MonthTotal {
	type key struct {
		year  int
		month time.Month
	}
	groups := make(map[key]*MonthTotal)
	for _, e := range records {
		k := key{e.Date.Year(), e.Date.Month()}
		g, ok := groups[k]
		if !ok {
			g = &MonthTotal{Year: k.year, Month: k.month}
			groups[k] = g
		}
		g.Debit = g.Debit.Add(e.Debit)
		g.Credit = g.Credit.Add(e.Credit)
	}

	out := make([]MonthTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b MonthTotal) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})
	return out
}

// Totals sums every record.
func Totals(records []models.Expense) Summary {
	var s Summary
	for _, e := range records {
		s.Debit = s.Debit.Add(e.Debit)
		s.Credit = s.Credit.Add(e.Credit)
		s.Count++
	}
	s.Net = s.Credit.Sub(s.Debit)
	return s
}

// Summarize sums the records dated within [from, to], both ends inclusive.
// Only the calendar date of from, to and each record is compared.
func Summarize(records []models.Expense, from, to time.Time) Summary {
	return Totals(InRange(records, from, to))
}

// InRange returns the records dated within [from, to], keeping their order.
func InRange(records []models.Expense, from, to time.Time) []models.Expense {
	from, to = models.TruncateDay(from), models.TruncateDay(to)
	var out []models.Expense
	for _, e := range records {
		d := e.Day()
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SourceBalances returns credit - debit for every source, ordered by name.
func SourceBalances(records []models.Expense) []Balance {
	sums := make(map[string]decimal.Decimal)
	for _, e := range records {
		src := e.Source
		if src == "" {
			src = OtherSource
		}
		sums[src] = sums[src].Add(e.Credit).Sub(e.Debit)
	}

	out := make([]Balance, 0, len(sums))
	for src, bal := range sums {
		out = append(out, Balance{Source: src, Balance: bal})
	}
	slices.SortFunc(out, func(a, b Balance) int { return cmp.Compare(a.Source, b.Source) })
	return out
}
