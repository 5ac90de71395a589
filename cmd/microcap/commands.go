package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/microcap/internal/app"
	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/models"
)

var commands = []subcommands.Command{
	&dailyCmd{},
	&validateCmd{},
	&promptCmd{},
	&checkCapsCmd{},
	&chartCmd{},
	&versionCmd{},
}

// openApp builds the App from the -config value passed through Execute and prints the banner
func openApp(name string, args []interface{}) (*app.App, subcommands.ExitStatus) {
	var configPath string
	if len(args) > 0 {
		configPath, _ = args[0].(string)
	}
	a, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	common.PrintBanner(os.Stderr, name, a.Config, a.Logger)
	return a, subcommands.ExitSuccess
}

// printReport writes a one-line verdict then every non-success finding
func printReport(w io.Writer, report *models.ValidationReport, path string) {
	verdict := "PASSED"
	if !report.Passed {
		verdict = "FAILED"
	}
	fmt.Fprintf(w, "Validation %s: %d errors, %d warnings (%s)\n", verdict, len(report.Errors()), len(report.Warnings()), path)
	for _, f := range report.Findings {
		if f.Level != models.LevelSuccess {
			fmt.Fprintf(w, "  [%s] %s: %s\n", f.Level, f.Check, f.Message)
		}
	}
}

// --- daily ---

type dailyCmd struct {
	jsonOut bool
}

func (*dailyCmd) Name() string     { return "daily" }
func (*dailyCmd) Synopsis() string { return "price holdings, append the daily snapshot and validate it" }
func (*dailyCmd) Usage() string {
	return `daily [-json]

Derives holdings from the ledger, fetches current prices through the tiered
fetcher, appends the day's rows and TOTAL row to the performance log, then
validates the snapshot against the previous day and saves the report.
`
}
func (c *dailyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "print the snapshot as JSON")
}

func (c *dailyCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, status := openApp(c.Name(), args)
	if a == nil {
		return status
	}
	defer a.Close()

	res, err := a.RunDaily(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Daily run failed: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode snapshot: %v\n", err)
			return subcommands.ExitFailure
		}
	} else {
		for _, r := range res.Snapshot.Rows {
			fmt.Printf("%-8s %8g @ $%-10.2f value $%-10.2f pnl $%+.2f\n", r.Ticker, r.Shares, r.CurrentPrice, r.TotalValue, r.PnL)
		}
		t := res.Snapshot.Total
		fmt.Printf("TOTAL    value $%.2f  cash $%.2f  equity $%.2f\n", t.TotalValue, t.CashBalance, t.TotalEquity)
	}

	printReport(os.Stderr, res.Report, res.ReportPath)
	if !res.Report.Passed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- validate ---

type validateCmd struct {
	lastTrade    bool
	action       string
	ticker       string
	shares       float64
	price        float64
	cashBefore   float64
	cashAfter    float64
	sharesBefore float64
	sharesAfter  float64
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "re-validate the latest logged snapshot" }
func (*validateCmd) Usage() string {
	return `validate [-last-trade | -action BUY|SELL -ticker T -shares N -price P -cash-before C -cash-after C -shares-before N -shares-after N]

Runs every integrity check on the latest snapshot in the performance log
against its predecessor. A trade check is added with -last-trade (derived
from the ledger's final row) or with explicit trade flags.
`
}
func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.lastTrade, "last-trade", false, "verify the ledger's final transaction")
	f.StringVar(&c.action, "action", "", "trade action, BUY or SELL")
	f.StringVar(&c.ticker, "ticker", "", "trade ticker")
	f.Float64Var(&c.shares, "shares", 0, "trade share count")
	f.Float64Var(&c.price, "price", 0, "trade price per share")
	f.Float64Var(&c.cashBefore, "cash-before", 0, "cash balance before the trade")
	f.Float64Var(&c.cashAfter, "cash-after", 0, "cash balance after the trade")
	f.Float64Var(&c.sharesBefore, "shares-before", 0, "share position before the trade")
	f.Float64Var(&c.sharesAfter, "shares-after", 0, "share position after the trade")
}

func (c *validateCmd) tradeFromFlags() (*models.TradeCheck, error) {
	action, ok := models.ParseTradeAction(c.action)
	if !ok {
		return nil, fmt.Errorf("-action must be BUY or SELL, got %q", c.action)
	}
	if c.ticker == "" {
		return nil, fmt.Errorf("-ticker is required with -action")
	}
	return &models.TradeCheck{
		Trade:  models.TradeRecord{Action: action, Ticker: strings.ToUpper(c.ticker), Shares: c.shares, Price: c.price},
		Before: models.Balances{Cash: c.cashBefore, Shares: c.sharesBefore},
		After:  models.Balances{Cash: c.cashAfter, Shares: c.sharesAfter},
	}, nil
}

func (c *validateCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	var trade *models.TradeCheck
	if c.action != "" {
		if c.lastTrade {
			fmt.Fprintln(os.Stderr, "Error: -last-trade and -action are mutually exclusive.")
			return subcommands.ExitUsageError
		}
		var err error
		if trade, err = c.tradeFromFlags(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	a, status := openApp(c.Name(), args)
	if a == nil {
		return status
	}
	defer a.Close()

	if c.lastTrade {
		var err error
		if trade, err = a.LastTradeCheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to derive last trade: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	report, path, err := a.RunValidate(ctx, trade)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed to run: %v\n", err)
		return subcommands.ExitFailure
	}
	printReport(os.Stdout, report, path)
	if !report.Passed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- prompt ---

type promptCmd struct {
	mode string
}

func (*promptCmd) Name() string     { return "prompt" }
func (*promptCmd) Synopsis() string { return "generate prompt data from market and portfolio state" }
func (*promptCmd) Usage() string {
	return `prompt [-mode initial|daily|holdings]

Prints the prompt digest and saves it under the data directory.
  initial   market indices only
  holdings  indices plus ledger holdings at current prices
  daily     summary of the latest logged snapshot
`
}
func (c *promptCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mode, "mode", app.PromptInitial, "prompt mode: initial, daily or holdings")
}

func (c *promptCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, status := openApp(c.Name(), args)
	if a == nil {
		return status
	}
	defer a.Close()

	text, path, err := a.Prompt(ctx, c.mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Prompt generation failed: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Print(text)
	fmt.Fprintf(os.Stderr, "Prompt data saved to %s\n", path)
	return subcommands.ExitSuccess
}

// --- check-caps ---

type checkCapsCmd struct{}

func (*checkCapsCmd) Name() string     { return "check-caps" }
func (*checkCapsCmd) Synopsis() string { return "check tickers against the micro-cap limit" }
func (*checkCapsCmd) Usage() string {
	return `check-caps TICKER [TICKER...]

Looks up each ticker's market cap and reports whether it is within the
configured micro-cap limit.
`
}
func (*checkCapsCmd) SetFlags(*flag.FlagSet) {}

func (c *checkCapsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required.")
		return subcommands.ExitUsageError
	}

	a, status := openApp(c.Name(), args)
	if a == nil {
		return status
	}
	defer a.Close()

	var valid, invalid []string
	for _, r := range a.CheckCaps(ctx, f.Args()) {
		mark := "✓"
		if r.Valid {
			valid = append(valid, r.Ticker)
		} else {
			mark = "✗"
			invalid = append(invalid, r.Ticker)
		}
		fmt.Printf("%s %s\n", mark, r.Message)
	}

	fmt.Printf("\nValid micro-caps (%d): %s\n", len(valid), strings.Join(valid, ", "))
	fmt.Printf("Invalid (%d): %s\n", len(invalid), strings.Join(invalid, ", "))
	return subcommands.ExitSuccess
}

// --- chart ---

type chartCmd struct{}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "render the equity curve to PNG" }
func (*chartCmd) Usage() string {
	return `chart

Renders total equity and holdings value from the performance log.
`
}
func (*chartCmd) SetFlags(*flag.FlagSet) {}

func (c *chartCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, status := openApp(c.Name(), args)
	if a == nil {
		return status
	}
	defer a.Close()

	path, err := a.Chart()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chart failed: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(path)
	return subcommands.ExitSuccess
}

// --- version ---

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print version information" }
func (*versionCmd) Usage() string          { return "version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Println("microcap", common.GetFullVersion())
	return subcommands.ExitSuccess
}
