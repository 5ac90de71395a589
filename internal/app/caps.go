package app

import (
	"context"
	"fmt"

	"github.com/bobmcallan/microcap/internal/services/portfolio"
	"github.com/bobmcallan/microcap/internal/services/quote"
)

// CapCheck is one ticker's micro-cap verdict
type CapCheck struct {
	Ticker  string
	Valid   bool
	Message string
}

// CheckCaps validates each ticker against the configured micro-cap limit, in input order
func (a *App) CheckCaps(ctx context.Context, tickers []string) []CapCheck {
	limit := a.Config.Portfolio.MicroCapLimit
	tickers = quote.NormalizeTickers(tickers)

	out := make([]CapCheck, 0, len(tickers))
	for _, t := range tickers {
		ok, msg := a.QuoteService.ValidateMicroCap(ctx, t, limit)
		out = append(out, CapCheck{Ticker: t, Valid: ok, Message: msg})
	}
	return out
}

// Chart renders the equity curve from the performance log and saves it as a PNG
func (a *App) Chart() (string, error) {
	snaps, err := a.PerformanceLog.Load()
	if err != nil {
		return "", err
	}
	png, err := portfolio.RenderEquityChart(portfolio.EquityCurve(snaps))
	if err != nil {
		return "", err
	}
	return a.Files.SaveChart(fmt.Sprintf("equity_%s", a.today().Format("20060102")), png)
}
