package quote

import (
	"context"
	"time"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

// PrimaryResolver resolves quotes from one batched history download plus a
// per-ticker market cap lookup.
type PrimaryResolver struct {
	client interfaces.MarketDataClient
	period string
	logger *common.Logger
}

// NewPrimaryResolver creates the tier 1 resolver
func NewPrimaryResolver(client interfaces.MarketDataClient, period string, logger *common.Logger) *PrimaryResolver {
	if period == "" {
		period = "1y"
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &PrimaryResolver{client: client, period: period, logger: logger}
}

func (r *PrimaryResolver) Name() string { return "primary" }

// Resolve downloads history for all tickers at once. A failed batch leaves
// every ticker pending; a ticker with no usable close or a failed market cap
// lookup stays pending on its own.
func (r *PrimaryResolver) Resolve(ctx context.Context, tickers []string) (map[string]*models.TickerQuote, []string) {
	resolved := make(map[string]*models.TickerQuote)
	if len(tickers) == 0 {
		return resolved, nil
	}

	history, err := r.client.DownloadHistory(ctx, tickers, r.period)
	if err != nil {
		r.logger.Warn().Err(err).Int("tickers", len(tickers)).Msg("Primary batch download failed")
		return resolved, tickers
	}

	var pending []string
	for _, t := range tickers {
		q := quoteFromBars(t, history[t])
		if q == nil {
			r.logger.Debug().Str("ticker", t).Msg("No usable closes in primary history")
			pending = append(pending, t)
			continue
		}

		mc, err := r.client.MarketCap(ctx, t)
		if err != nil {
			r.logger.Warn().Err(err).Str("ticker", t).Msg("Primary market cap lookup failed")
			pending = append(pending, t)
			continue
		}
		q.MarketCap = mc
		resolved[t] = q
	}

	return resolved, pending
}

// quoteFromBars builds a quote from the latest close, with change against the
// previous close when there is one. Returns nil when no close is usable.
func quoteFromBars(ticker string, bars []models.PriceBar) *models.TickerQuote {
	var closes []float64
	for _, b := range bars {
		if !common.IsMissing(b.Close) {
			closes = append(closes, b.Close)
		}
	}
	if len(closes) == 0 {
		return nil
	}

	last := closes[len(closes)-1]
	q := &models.TickerQuote{
		Ticker:       ticker,
		CurrentPrice: common.Round2(last),
		DataQuality:  models.DataQualityPrimary,
		FetchedAt:    time.Now(),
	}

	if len(closes) > 1 {
		prev := closes[len(closes)-2]
		change := last - prev
		pct := change / prev * 100
		change, pct = common.Round2(change), common.Round2(pct)
		q.Change = &change
		q.ChangePercent = &pct
	}

	return q
}
