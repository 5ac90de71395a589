package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/microcap/internal/models"
)

// QuoteService resolves tickers to quotes through the tiered fallback chain
type QuoteService interface {
	// GetQuotes resolves every ticker; the batch never fails outright
	GetQuotes(ctx context.Context, tickers []string) map[string]*models.TickerQuote

	// GetQuote resolves a single ticker
	GetQuote(ctx context.Context, ticker string) (*models.TickerQuote, bool)

	// ValidateMicroCap reports whether the ticker's market cap is within capLimit
	ValidateMicroCap(ctx context.Context, ticker string, capLimit int64) (bool, string)

	// GetPortfolioCurrentValues marks holdings to current quotes
	GetPortfolioCurrentValues(ctx context.Context, holdings []models.Holding) []models.ValuedHolding

	// GetMajorIndices returns the configured prompt indices keyed by ticker
	GetMajorIndices(ctx context.Context) []*models.TickerQuote

	// FormatForPrompt renders the market + holdings digest
	FormatForPrompt(ctx context.Context, holdings []models.Holding, now time.Time) string
}

// ValidationService checks a day's snapshot for internal consistency and plausibility
type ValidationService interface {
	RunFullValidation(ctx context.Context, current *models.Snapshot, previous *models.Snapshot, trade *models.TradeCheck) *models.ValidationReport
}
