package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bobmcallan/microcap/internal/models"
	"github.com/bobmcallan/microcap/internal/services/ledger"
	"github.com/bobmcallan/microcap/internal/storage"
)

// ErrNoHoldings is returned when the ledger leaves no open positions
var ErrNoHoldings = errors.New("no open holdings in ledger")

// DailyResult is the outcome of one daily run
type DailyResult struct {
	Snapshot   *models.Snapshot
	Previous   *models.Snapshot
	Quotes     map[string]*models.TickerQuote
	Report     *models.ValidationReport
	ReportPath string
}

// RunDaily derives holdings from the ledger, prices them with the tiered
// fetcher, appends the day's snapshot to the performance log, then validates
// it against the previous day and saves the report.
func (a *App) RunDaily(ctx context.Context) (*DailyResult, error) {
	now := a.now()

	book, err := a.loadBook()
	if err != nil {
		return nil, err
	}
	holdings := book.Holdings()
	if len(holdings) == 0 {
		return nil, ErrNoHoldings
	}

	tickers := make([]string, 0, len(holdings)+len(a.Config.Portfolio.Indices))
	for _, h := range holdings {
		tickers = append(tickers, h.Ticker)
	}
	for _, idx := range a.Config.ReferenceIndices() {
		tickers = append(tickers, idx.Ticker)
	}

	quotes := a.QuoteService.GetQuotes(ctx, tickers)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("daily run cancelled before logging: %w", err)
	}
	snap := a.Builder.Build(now, holdings, quotes, book.CashBalance(a.Config.Portfolio.InitialCapital))

	if header, err := a.PerformanceLog.Header(); err != nil {
		return nil, err
	} else if header != nil && !slices.Equal(header, a.PerformanceLog.Columns()) {
		a.Logger.Warn().Str("path", a.PerformanceLog.Path()).Msg("Performance log header differs from configured index columns")
	}

	previous, err := a.PerformanceLog.Previous(snap.Date)
	if err != nil && !errors.Is(err, storage.ErrNoSnapshots) {
		return nil, err
	}

	// The log is append-only, so a late cancellation must not write a partial day.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("daily run cancelled before logging: %w", err)
	}
	if err := a.PerformanceLog.Append(snap); err != nil {
		return nil, err
	}

	report := a.ValidationService.RunFullValidation(ctx, snap, previous, nil)
	path, err := a.Files.Save(snap.Date, report)
	if err != nil {
		return nil, err
	}

	a.Logger.Info().
		Str("date", snap.Date.Format("2006-01-02")).
		Int("holdings", len(snap.Rows)).
		Float64("total_equity", snap.Total.TotalEquity).
		Bool("passed", report.Passed).
		Msg("Daily run complete")

	return &DailyResult{
		Snapshot:   snap,
		Previous:   previous,
		Quotes:     quotes,
		Report:     report,
		ReportPath: path,
	}, nil
}

// RunValidate re-validates the latest logged snapshot against its
// predecessor. trade is optional.
func (a *App) RunValidate(ctx context.Context, trade *models.TradeCheck) (*models.ValidationReport, string, error) {
	latest, previous, err := a.PerformanceLog.LatestPair()
	if err != nil {
		return nil, "", err
	}

	report := a.ValidationService.RunFullValidation(ctx, latest, previous, trade)
	path, err := a.Files.Save(latest.Date, report)
	if err != nil {
		return nil, "", err
	}
	return report, path, nil
}

// LastTradeCheck builds a trade check from the ledger's final transaction,
// comparing balances with and without it. The fee settles separately from
// the trade amount, so it is taken out of the before balance.
func (a *App) LastTradeCheck() (*models.TradeCheck, error) {
	txns, err := a.Ledger.Load()
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("ledger %s has no transactions", a.Ledger.Path())
	}

	last := txns[len(txns)-1]
	before, err := ledger.Build(txns[:len(txns)-1])
	if err != nil {
		return nil, err
	}
	after, err := ledger.Build(txns)
	if err != nil {
		return nil, err
	}

	capital := a.Config.Portfolio.InitialCapital
	shares, _ := last.Shares.Float64()
	price, _ := last.Price.Float64()
	fee, _ := last.Fee.Float64()

	return &models.TradeCheck{
		Trade: models.TradeRecord{
			Action: last.Action,
			Ticker: last.Ticker,
			Shares: shares,
			Price:  price,
		},
		Before: models.Balances{Cash: before.CashBalance(capital) - fee, Shares: before.Shares(last.Ticker)},
		After:  models.Balances{Cash: after.CashBalance(capital), Shares: after.Shares(last.Ticker)},
	}, nil
}

func (a *App) loadBook() (*ledger.Book, error) {
	txns, err := a.Ledger.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return ledger.Build(txns)
}

// today returns the run date as a UTC midnight
func (a *App) today() time.Time {
	n := a.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
