package quote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/microcap/internal/models"
)

// FormatForPrompt renders the market digest: one line per prompt index and,
// when holdings are given, a holdings table with the portfolio total.
func (s *Service) FormatForPrompt(ctx context.Context, holdings []models.Holding, now time.Time) string {
	indices := s.GetMajorIndices(ctx)
	var valued []models.ValuedHolding
	if len(holdings) > 0 {
		valued = s.GetPortfolioCurrentValues(ctx, holdings)
	}
	return FormatDigest(indices, valued, now)
}

// FormatDigest is the pure formatting half of FormatForPrompt
func FormatDigest(indices []*models.TickerQuote, holdings []models.ValuedHolding, now time.Time) string {
	date := now.Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "## Current market data (%s):\n", date)
	for _, q := range indices {
		name := q.Name
		if name == "" {
			name = q.Ticker
		}
		fmt.Fprintf(&b, "- %s: $%.2f (%+.2f, %+.2f%%)%s\n",
			name, q.CurrentPrice, deref(q.Change), deref(q.ChangePercent), simulatedNote(q.DataQuality))
	}
	fmt.Fprintf(&b, "- Current date: %s\n", date)

	if len(holdings) == 0 {
		return b.String()
	}

	b.WriteString("\n## Current portfolio:\n")
	b.WriteString("| Ticker | Shares | Buy Price | Current Price | Value | PnL | PnL% | Stop Loss |\n")
	b.WriteString("|--------|--------|-----------|---------------|-------|-----|------|-----------|\n")

	var total float64
	for _, h := range holdings {
		total += h.CurrentValue
		fmt.Fprintf(&b, "| %s%s | %s | $%.2f | $%.2f | $%.2f | $%+.2f | %+.1f%% | $%.2f |\n",
			h.Ticker, simulatedNote(h.DataQuality),
			strconv.FormatFloat(h.Shares, 'f', -1, 64),
			h.BuyPrice, h.CurrentPrice, h.CurrentValue, h.PnL, h.PnLPercent, deref(h.StopLoss))
	}
	fmt.Fprintf(&b, "\n**Portfolio total value**: $%.2f\n", total)

	return b.String()
}

func simulatedNote(q models.DataQuality) string {
	if q.IsSimulated() {
		return " (simulated)"
	}
	return ""
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
