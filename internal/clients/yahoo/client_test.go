package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/microcap/internal/models"
)

type mockBackend struct {
	downloadCalled bool
	gotSymbols     []string
	gotPeriod      string
	data           map[string][]models.PriceBar
	symErrs        map[string]error
	err            error
	cap            int64
	capErr         error
	bars           []models.PriceBar
	delay          time.Duration
}

func (m *mockBackend) download(symbols []string, period string) (map[string][]models.PriceBar, map[string]error, error) {
	m.downloadCalled = true
	m.gotSymbols = symbols
	m.gotPeriod = period
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.data, m.symErrs, m.err
}

func (m *mockBackend) marketCap(string) (int64, error) { return m.cap, m.capErr }

func (m *mockBackend) history(string, string) ([]models.PriceBar, error) { return m.bars, nil }

func bar(day int, close float64) models.PriceBar {
	return models.PriceBar{Date: time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC), Close: close}
}

func TestDownloadHistory_OmitsEmptyAndErrored(t *testing.T) {
	mb := &mockBackend{
		data: map[string][]models.PriceBar{
			"abeo": {bar(4, 5.50), bar(5, 5.77)},
			"XYZ":  {},
		},
		symErrs: map[string]error{"NOPE": errors.New("no data")},
	}
	c := NewClient(withBackend(mb))

	got, err := c.DownloadHistory(context.Background(), []string{"ABEO", "XYZ", "NOPE"}, "1y")
	require.NoError(t, err)

	assert.True(t, mb.downloadCalled)
	assert.Equal(t, "1y", mb.gotPeriod)
	assert.Len(t, got, 1)
	assert.Len(t, got["ABEO"], 2)
	assert.Equal(t, 5.77, got["ABEO"][1].Close)
}

func TestDownloadHistory_EmptyInputSkipsBackend(t *testing.T) {
	mb := &mockBackend{}
	c := NewClient(withBackend(mb))

	got, err := c.DownloadHistory(context.Background(), nil, "1y")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, mb.downloadCalled)
}

func TestDownloadHistory_BackendError(t *testing.T) {
	c := NewClient(withBackend(&mockBackend{err: errors.New("blocked")}))

	_, err := c.DownloadHistory(context.Background(), []string{"ABEO"}, "1y")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestDownloadHistory_Timeout(t *testing.T) {
	mb := &mockBackend{delay: 200 * time.Millisecond}
	c := NewClient(withBackend(mb), WithTimeout(10*time.Millisecond))

	_, err := c.DownloadHistory(context.Background(), []string{"ABEO"}, "1y")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMarketCap(t *testing.T) {
	c := NewClient(withBackend(&mockBackend{cap: 71_000_000}))
	mc, err := c.MarketCap(context.Background(), "ABEO")
	require.NoError(t, err)
	assert.Equal(t, int64(71_000_000), mc)

	c = NewClient(withBackend(&mockBackend{}))
	mc, err = c.MarketCap(context.Background(), "^GSPC")
	require.NoError(t, err)
	assert.Zero(t, mc)

	c = NewClient(withBackend(&mockBackend{capErr: errors.New("429")}))
	_, err = c.MarketCap(context.Background(), "ABEO")
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	c := NewClient(withBackend(&mockBackend{bars: []models.PriceBar{bar(4, 1), bar(5, 2)}}), WithRateLimit(100))
	bars, err := c.History(context.Background(), "ABEO", "5d")
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mb := &mockBackend{}
	c := NewClient(withBackend(mb))
	_, err := c.DownloadHistory(ctx, []string{"ABEO"}, "1y")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, mb.downloadCalled)
}
