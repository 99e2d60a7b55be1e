package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"expense-ledger/internal/models"
	"expense-ledger/internal/report"
	"expense-ledger/internal/sheet"

	"github.com/shopspring/decimal"
)

func newFlagSet(name string, e *env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// filterFlags registers the record filter flags on fs. The returned function
// must be called after parsing.
func filterFlags(fs *flag.FlagSet) func() (models.Filter, error) {
	year := fs.Int("year", 0, "Only records of this year")
	month := fs.Int("month", 0, "Only records of this month (1-12)")
	category := fs.String("category", "", "Only records of this category")
	source := fs.String("source", "", "Only records of this source")

	return func() (models.Filter, error) {
		var f models.Filter
		if *year != 0 {
			f.Year = year
		}
		if *month != 0 {
			if *month < 1 || *month > 12 {
				return f, fmt.Errorf("invalid month %d", *month)
			}
			f.Month = month
		}
		if *category != "" {
			f.Category = category
		}
		if *source != "" {
			f.Source = source
		}
		return f, nil
	}
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func runAdd(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("add", e)
	date := fs.String("date", "", "Date (YYYY-MM-DD or MM/DD/YYYY, default today)")
	category := fs.String("category", "", "Category")
	debit := fs.String("debit", "", "Debit amount")
	credit := fs.String("credit", "", "Credit amount")
	source := fs.String("source", "", "Source of funds")
	notes := fs.String("notes", "", "Notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day := models.TruncateDay(e.now())
	if *date != "" {
		var err error
		if day, err = models.ParseDate(*date); err != nil {
			return fmt.Errorf("date %q: %w", *date, err)
		}
	}
	debitAmount, err := models.ParseAmount(*debit)
	if err != nil {
		return fmt.Errorf("debit amount %q: %w", *debit, err)
	}
	creditAmount, err := models.ParseAmount(*credit)
	if err != nil {
		return fmt.Errorf("credit amount %q: %w", *credit, err)
	}

	expense := &models.Expense{
		Date:     day,
		Category: strings.TrimSpace(*category),
		Debit:    debitAmount,
		Credit:   creditAmount,
		Source:   strings.TrimSpace(*source),
		Notes:    strings.TrimSpace(*notes),
	}
	if err := e.stores.Ledger.Add(ctx, expense); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Expense %d added.\n", expense.ID)
	return nil
}

func runList(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("list", e)
	filter := filterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}

	records, err := e.stores.Ledger.GetFiltered(ctx, f)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		if f.IsEmpty() {
			fmt.Fprintln(e.stdout, "No records found.")
		} else {
			fmt.Fprintln(e.stdout, "No records match the filter.")
		}
		return nil
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tDEBIT\tCREDIT\tSOURCE\tNOTES")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date.Format(models.DateLayout), r.Category, fixed(r.Debit), fixed(r.Credit), r.Source, r.Notes)
	}
	totals := report.Totals(records)
	fmt.Fprintf(tw, "\tTOTAL\t\t%s\t%s\t\t\n", fixed(totals.Debit), fixed(totals.Credit))
	return tw.Flush()
}

func runBalance(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("balance", e)
	if err := fs.Parse(args); err != nil {
		return err
	}

	total, err := e.stores.Ledger.GetTotalBalance(ctx)
	if err != nil {
		return err
	}
	records, err := e.stores.Ledger.GetAll(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tBALANCE")
	for _, b := range report.SourceBalances(records) {
		fmt.Fprintf(tw, "%s\t%s\n", b.Source, fixed(b.Balance))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\n", fixed(total))
	return tw.Flush()
}

func runDashboard(ctx context.Context, e *env, args []string) error {
	today := models.TruncateDay(e.now())
	fs := newFlagSet("dashboard", e)
	fromFlag := fs.String("from", "", "First day of the range (default first day of this month)")
	toFlag := fs.String("to", "", "Last day of the range (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := today
	var err error
	if *fromFlag != "" {
		if from, err = models.ParseDate(*fromFlag); err != nil {
			return fmt.Errorf("from %q: %w", *fromFlag, err)
		}
	}
	if *toFlag != "" {
		if to, err = models.ParseDate(*toFlag); err != nil {
			return fmt.Errorf("to %q: %w", *toFlag, err)
		}
	}
	if to.Before(from) {
		return fmt.Errorf("range ends before it starts: %s > %s",
			from.Format(models.DateLayout), to.Format(models.DateLayout))
	}

	all, err := e.stores.Ledger.GetAll(ctx)
	if err != nil {
		return err
	}
	summary := report.Summarize(all, from, to)
	records := report.InRange(all, from, to)

	w := e.stdout
	fmt.Fprintf(w, "Dashboard for %s, %s .. %s (%d records)\n\n",
		e.session.Username(), from.Format(models.DateLayout), to.Format(models.DateLayout), summary.Count)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total debit\t%s\n", fixed(summary.Debit))
	fmt.Fprintf(tw, "Total credit\t%s\n", fixed(summary.Credit))
	fmt.Fprintf(tw, "Net\t%s\n", fixed(summary.Net))
	if err := tw.Flush(); err != nil {
		return err
	}

	if err := writeBreakdown(w, "Spending by source", report.BySource(records)); err != nil {
		return err
	}
	if err := writeBreakdown(w, "Spending by category", report.ByCategory(records)); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nMonthly trend")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tDEBIT\tCREDIT")
	for _, m := range report.MonthlyTrend(records) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Label(), fixed(m.Debit), fixed(m.Credit))
	}
	return tw.Flush()
}

func writeBreakdown(w io.Writer, title string, rows []report.Breakdown) error {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, b := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", b.Name, fixed(b.Total))
	}
	return tw.Flush()
}

func runFilters(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("filters", e)
	if err := fs.Parse(args); err != nil {
		return err
	}

	years, err := e.stores.Ledger.Years(ctx)
	if err != nil {
		return err
	}
	categories, err := e.stores.Ledger.Categories(ctx)
	if err != nil {
		return err
	}
	sources, err := e.stores.Ledger.Sources(ctx)
	if err != nil {
		return err
	}

	yearText := make([]string, len(years))
	for i, y := range years {
		yearText[i] = strconv.Itoa(y)
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Years\t%s\n", strings.Join(yearText, ", "))
	fmt.Fprintf(tw, "Categories\t%s\n", strings.Join(categories, ", "))
	fmt.Fprintf(tw, "Sources\t%s\n", strings.Join(sources, ", "))
	return tw.Flush()
}

// stdoutPath as a file argument writes the workbook to standard output.
const stdoutPath = "-"

// fileArg parses fs and returns its single positional argument.
func fileArg(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one file argument", fs.Name())
	}
	return fs.Arg(0), nil
}

func runImport(ctx context.Context, e *env, args []string) error {
	path, err := fileArg(newFlagSet("import", e), args)
	if err != nil {
		return err
	}

	res, err := sheet.Import(ctx, path, e.stores.Ledger)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	fmt.Fprintf(e.stdout, "Successfully imported %d expenses.\n", res.SuccessCount)
	if res.ErrorCount > 0 {
		fmt.Fprintf(e.stdout, "%d rows could not be imported:\n", res.ErrorCount)
		for _, re := range res.Errors {
			fmt.Fprintf(e.stdout, "  Error in row %d: %v\n", re.Row, re.Err)
		}
	}
	return nil
}

func runTemplate(_ context.Context, e *env, args []string) error {
	path, err := fileArg(newFlagSet("template", e), args)
	if err != nil {
		return err
	}
	if path == stdoutPath {
		return sheet.WriteTemplate(e.stdout, e.now())
	}
	if err := sheet.SaveTemplate(path, e.now()); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Template written to %s\n", path)
	return nil
}

func runExport(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("export", e)
	filter := filterFlags(fs)
	path, err := fileArg(fs, args)
	if err != nil {
		return err
	}
	f, err := filter()
	if err != nil {
		return err
	}

	records, err := e.stores.Ledger.GetFiltered(ctx, f)
	if err != nil {
		return err
	}
	if path == stdoutPath {
		return sheet.Export(e.stdout, records)
	}
	if err := sheet.ExportFile(path, records); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "Exported %d records to %s\n", len(records), path)
	return nil
}
