// Package interfaces defines service contracts for microcap
package interfaces

import (
	"context"

	"github.com/bobmcallan/microcap/internal/models"
)

// HistoryClient provides short per-ticker trading history.
// Used by the integrity validator for price plausibility checks.
type HistoryClient interface {
	// History returns daily bars for the trailing period (e.g. "5d"), oldest first
	History(ctx context.Context, ticker string, period string) ([]models.PriceBar, error)
}

// MarketDataClient is the batched primary market-data source
type MarketDataClient interface {
	HistoryClient

	// DownloadHistory fetches daily bars for many tickers in one call.
	// Tickers missing from the response are absent from the map.
	DownloadHistory(ctx context.Context, tickers []string, period string) (map[string][]models.PriceBar, error)

	// MarketCap returns the ticker's market capitalisation in currency units
	MarketCap(ctx context.Context, ticker string) (int64, error)
}

// QuotePage is the raw text scraped from a ticker's quote page
type QuotePage struct {
	Ticker        string
	PriceText     string
	MarketCapText string
}

// QuoteSession is an open interactive browser session.
// Close must be called exactly once when the session is no longer needed.
type QuoteSession interface {
	// FetchQuotePage navigates to the ticker's quote page and extracts price and market cap text
	FetchQuotePage(ctx context.Context, ticker string) (*QuotePage, error)

	Close() error
}

// BrowserLauncher opens interactive quote sessions on demand
type BrowserLauncher interface {
	Launch(ctx context.Context) (QuoteSession, error)
}
