package quote

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

// --- Mocks ---

type mockMarketClient struct {
	history     map[string][]models.PriceBar
	downloadErr error
	caps        map[string]int64
	capErrs     map[string]error

	downloadCalls int
	capCalls      []string
}

func (m *mockMarketClient) DownloadHistory(_ context.Context, tickers []string, _ string) (map[string][]models.PriceBar, error) {
	m.downloadCalls++
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	out := make(map[string][]models.PriceBar)
	for _, t := range tickers {
		if bars, ok := m.history[t]; ok {
			out[t] = bars
		}
	}
	return out, nil
}

func (m *mockMarketClient) MarketCap(_ context.Context, ticker string) (int64, error) {
	m.capCalls = append(m.capCalls, ticker)
	if err := m.capErrs[ticker]; err != nil {
		return 0, err
	}
	return m.caps[ticker], nil
}

func (m *mockMarketClient) History(_ context.Context, ticker string, _ string) ([]models.PriceBar, error) {
	return m.history[ticker], nil
}

type mockSession struct {
	pages   map[string]*interfaces.QuotePage
	fetched []string
	closed  int
}

func (m *mockSession) FetchQuotePage(_ context.Context, ticker string) (*interfaces.QuotePage, error) {
	m.fetched = append(m.fetched, ticker)
	if p, ok := m.pages[ticker]; ok {
		return p, nil
	}
	return nil, errors.New("timeout waiting for chart")
}

func (m *mockSession) Close() error {
	m.closed++
	return nil
}

type mockLauncher struct {
	session   *mockSession
	err       error
	called    bool
	launchCnt int
}

func (m *mockLauncher) Launch(_ context.Context) (interfaces.QuoteSession, error) {
	m.called = true
	m.launchCnt++
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

type mockResolver struct {
	name     string
	resolve  func(tickers []string) map[string]*models.TickerQuote
	received [][]string
}

func (m *mockResolver) Name() string { return m.name }

func (m *mockResolver) Resolve(_ context.Context, tickers []string) (map[string]*models.TickerQuote, []string) {
	m.received = append(m.received, append([]string(nil), tickers...))
	resolved := m.resolve(tickers)
	var pending []string
	for _, t := range tickers {
		if _, ok := resolved[t]; !ok {
			pending = append(pending, t)
		}
	}
	return resolved, pending
}

func bars(closes ...float64) []models.PriceBar {
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Close: c, High: c, Low: c}
	}
	return out
}

func noSleep(context.Context, time.Duration) error { return nil }
