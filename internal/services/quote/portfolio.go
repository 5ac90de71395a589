package quote

import (
	"context"
	"fmt"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/models"
)

// ValidateMicroCap reports whether the ticker's market cap is known and at most capLimit.
// A non-positive capLimit uses common.DefaultMicroCapLimit.
func (s *Service) ValidateMicroCap(ctx context.Context, ticker string, capLimit int64) (bool, string) {
	if capLimit <= 0 {
		capLimit = common.DefaultMicroCapLimit
	}

	key := normalizeTicker(ticker)
	q, ok := s.GetQuote(ctx, key)
	if !ok || q.MarketCap <= 0 {
		return false, fmt.Sprintf("unable to obtain market cap for %s", key)
	}

	limitM := float64(capLimit) / 1e6
	if q.MarketCap > capLimit {
		return false, fmt.Sprintf("%s market cap $%.1fM exceeds $%.1fM limit", key, q.MarketCapMillions(), limitM)
	}
	return true, fmt.Sprintf("%s market cap $%.1fM within $%.1fM micro-cap limit", key, q.MarketCapMillions(), limitM)
}

// GetPortfolioCurrentValues marks holdings to current quotes in one batched fetch.
// Holdings without a quote are returned unvalued with Stale set.
func (s *Service) GetPortfolioCurrentValues(ctx context.Context, holdings []models.Holding) []models.ValuedHolding {
	tickers := make([]string, 0, len(holdings))
	for _, h := range holdings {
		tickers = append(tickers, h.Ticker)
	}
	quotes := s.GetQuotes(ctx, tickers)

	out := make([]models.ValuedHolding, 0, len(holdings))
	for _, h := range holdings {
		q, ok := quotes[normalizeTicker(h.Ticker)]
		if !ok {
			s.logger.Warn().Str("ticker", h.Ticker).Msg("No price available, keeping previous holding data")
			out = append(out, models.ValuedHolding{Holding: h, Stale: true})
			continue
		}
		out = append(out, Value(h, q))
	}
	return out
}

// Value marks a single holding to a quote. CostBasis defaults to Shares*BuyPrice when unset.
func Value(h models.Holding, q *models.TickerQuote) models.ValuedHolding {
	costBasis := h.CostBasis
	if costBasis == 0 {
		costBasis = h.Shares * h.BuyPrice
	}

	value := h.Shares * q.CurrentPrice
	pnl := value - costBasis
	var pnlPct float64
	if costBasis != 0 {
		pnlPct = pnl / costBasis * 100
	}

	return models.ValuedHolding{
		Holding:      h,
		CurrentPrice: q.CurrentPrice,
		CurrentValue: common.Round2(value),
		PnL:          common.Round2(pnl),
		PnLPercent:   common.Round2(pnlPct),
		DataQuality:  q.DataQuality,
		LastUpdated:  q.FetchedAt,
	}
}

// GetMajorIndices returns quotes for the prompt indices in configured order,
// each a copy carrying the index name.
func (s *Service) GetMajorIndices(ctx context.Context) []*models.TickerQuote {
	return s.namedQuotes(ctx, s.promptIndices())
}

func (s *Service) namedQuotes(ctx context.Context, indices []common.IndexConfig) []*models.TickerQuote {
	tickers := make([]string, 0, len(indices))
	for _, idx := range indices {
		tickers = append(tickers, idx.Ticker)
	}
	quotes := s.GetQuotes(ctx, tickers)

	out := make([]*models.TickerQuote, 0, len(indices))
	for _, idx := range indices {
		q, ok := quotes[normalizeTicker(idx.Ticker)]
		if !ok {
			continue
		}
		named := *q
		named.Name = idx.Name
		out = append(out, &named)
	}
	return out
}

func (s *Service) promptIndices() []common.IndexConfig {
	var out []common.IndexConfig
	for _, idx := range s.indices {
		if idx.Prompt {
			out = append(out, idx)
		}
	}
	return out
}
