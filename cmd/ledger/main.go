package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"expense-ledger/internal/app"
)

const usage = "Usage: ledger -user <username> [-password <password>] [-db <db_path>] [-config <file>] <command> [flags]"

// env is what every command runs with.
type env struct {
	session *app.Session
	stores  *app.Stores
	stdout  io.Writer
	stderr  io.Writer
	now     func() time.Time
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"add", "record a debit or credit", runAdd},
	{"list", "list records, optionally filtered", runList},
	{"balance", "total balance and balance per source", runBalance},
	{"dashboard", "totals, breakdowns and monthly trend for a date range", runDashboard},
	{"filters", "years, categories and sources present in the ledger", runFilters},
	{"import", "import records from a spreadsheet or CSV file", runImport},
	{"template", "write an empty import template (FILE or - for stdout)", runTemplate},
	{"export", "write records to a spreadsheet (FILE or - for stdout)", runExport},
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "", "Path to database file (default from config, DB_PATH or expenses.db)")
	configPath := fs.String("config", "", "Path to config file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		printUsage(fs, stdout)
		return fmt.Errorf("missing command")
	}
	name, cmdArgs := fs.Arg(0), fs.Args()[1:]
	idx := slices.IndexFunc(commands, func(c command) bool { return c.name == name })
	if idx < 0 {
		printUsage(fs, stdout)
		return fmt.Errorf("unknown command %q", name)
	}

	if *username == "" {
		printUsage(fs, stdout)
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = app.ReadPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	cfg, err := app.Configure(*configPath, *dbPath, "ledger", stderr)
	if err != nil {
		return err
	}

	ctx := context.Background()
	stores, err := app.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer stores.Close()

	users, err := stores.Credentials.UserCount(ctx)
	if err != nil {
		return err
	}
	if users == 0 {
		return fmt.Errorf("no users registered, create one with adduser")
	}

	session, err := app.Login(ctx, stores.Credentials, *username, password)
	if errors.Is(err, app.ErrLoginFailed) {
		return fmt.Errorf("login failed: %w", err)
	}
	if err != nil {
		return err
	}

	e := &env{
		session: session,
		stores:  stores,
		stdout:  stdout,
		stderr:  stderr,
		now:     time.Now,
	}
	return commands[idx].run(ctx, e, cmdArgs)
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	width := 0
	for _, c := range commands {
		width = max(width, len(c.name))
	}
	for _, c := range commands {
		fmt.Fprintf(w, "  %s%s  %s\n", c.name, strings.Repeat(" ", width-len(c.name)), c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	out := fs.Output()
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(out)
}
