package quote

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

func newTestService(client *mockMarketClient, launcher *mockLauncher) *Service {
	logger := common.NewSilentLogger()
	browser := NewBrowserResolver(launcher, 0, 0, logger)
	browser.sleep = noSleep
	return NewService([]Resolver{
		NewPrimaryResolver(client, "1y", logger),
		browser,
		NewSimulatorResolver(0, rand.New(rand.NewPCG(1, 2)), logger),
	}, common.NewDefaultConfig().Portfolio.Indices, logger)
}

func TestGetQuotes_FallsBackToSimulated(t *testing.T) {
	client := &mockMarketClient{downloadErr: errors.New("rate limited")}
	launcher := &mockLauncher{session: &mockSession{}}
	svc := newTestService(client, launcher)

	quotes := svc.GetQuotes(context.Background(), []string{"ZZZZ"})

	require.Contains(t, quotes, "ZZZZ")
	q := quotes["ZZZZ"]
	assert.Equal(t, models.DataQualitySimulated, q.DataQuality)
	assert.True(t, q.DataQuality.IsSimulated())
	assert.GreaterOrEqual(t, q.CurrentPrice, 0.95)
	assert.LessOrEqual(t, q.CurrentPrice, 315.0)
	assert.Equal(t, DefaultSimulatedMarketCap, q.MarketCap)
	assert.Nil(t, q.Change)

	assert.True(t, launcher.called)
	assert.Equal(t, []string{"ZZZZ"}, launcher.session.fetched)
	assert.Equal(t, 1, launcher.session.closed, "session must be closed after the batch")
}

func TestGetQuotes_PrimarySuccessNeverLaunchesBrowser(t *testing.T) {
	client := &mockMarketClient{
		history: map[string][]models.PriceBar{"ABEO": bars(5.50, 5.77)},
		caps:    map[string]int64{"ABEO": 71_000_000},
	}
	launcher := &mockLauncher{session: &mockSession{}}
	svc := newTestService(client, launcher)

	quotes := svc.GetQuotes(context.Background(), []string{"abeo"})

	q := quotes["ABEO"]
	require.NotNil(t, q)
	assert.Equal(t, models.DataQualityPrimary, q.DataQuality)
	assert.Equal(t, 5.77, q.CurrentPrice)
	require.NotNil(t, q.Change)
	assert.Equal(t, 0.27, *q.Change)
	require.NotNil(t, q.ChangePercent)
	assert.Equal(t, 4.91, *q.ChangePercent)
	assert.Equal(t, int64(71_000_000), q.MarketCap)
	assert.False(t, launcher.called, "browser must not be launched when tier 1 resolves everything")
}

func TestGetQuotes_OnlyPendingEscalates(t *testing.T) {
	client := &mockMarketClient{
		history: map[string][]models.PriceBar{
			"ABEO": bars(5.77),
			"NAN":  bars(math.NaN(), math.NaN()),
			"CAPX": bars(2, 3),
		},
		caps:    map[string]int64{"ABEO": 71_000_000},
		capErrs: map[string]error{"CAPX": errors.New("info unavailable")},
	}
	session := &mockSession{pages: map[string]*interfaces.QuotePage{
		"NAN": {Ticker: "NAN", PriceText: "1,234.50", MarketCapText: "1.2B"},
	}}
	launcher := &mockLauncher{session: session}
	svc := newTestService(client, launcher)

	quotes := svc.GetQuotes(context.Background(), []string{"ABEO", "NAN", "CAPX", "MISSING", "abeo"})

	assert.Len(t, quotes, 4)
	assert.Equal(t, models.DataQualityPrimary, quotes["ABEO"].DataQuality)
	assert.Equal(t, models.DataQualitySecondary, quotes["NAN"].DataQuality)
	assert.Equal(t, 1234.50, quotes["NAN"].CurrentPrice)
	assert.Equal(t, int64(1_200_000_000), quotes["NAN"].MarketCap)
	assert.Equal(t, models.DataQualitySimulated, quotes["CAPX"].DataQuality)
	assert.Equal(t, models.DataQualitySimulated, quotes["MISSING"].DataQuality)

	assert.Equal(t, []string{"NAN", "CAPX", "MISSING"}, session.fetched)
	assert.Equal(t, 1, launcher.launchCnt)
	assert.Equal(t, 1, session.closed)

	// Single close: no change fields
	assert.Nil(t, quotes["ABEO"].Change)
}

func TestGetQuotes_LaunchFailureLeavesAllPending(t *testing.T) {
	client := &mockMarketClient{downloadErr: errors.New("down")}
	launcher := &mockLauncher{err: errors.New("chrome not found")}
	svc := newTestService(client, launcher)

	quotes := svc.GetQuotes(context.Background(), []string{"AAA", "BBB"})

	assert.Len(t, quotes, 2)
	for _, q := range quotes {
		assert.Equal(t, models.DataQualitySimulated, q.DataQuality)
	}
}

func TestGetQuote_CacheIdempotent(t *testing.T) {
	primary := &mockResolver{name: "primary", resolve: func(tickers []string) map[string]*models.TickerQuote {
		out := map[string]*models.TickerQuote{}
		for _, tk := range tickers {
			out[tk] = &models.TickerQuote{Ticker: tk, CurrentPrice: 10, DataQuality: models.DataQualityPrimary}
		}
		return out
	}}
	svc := NewService([]Resolver{primary}, nil, common.NewSilentLogger())

	first, ok := svc.GetQuote(context.Background(), "ABEO")
	require.True(t, ok)
	second, ok := svc.GetQuote(context.Background(), " abeo ")
	require.True(t, ok)

	assert.Same(t, first, second)
	assert.Len(t, primary.received, 1, "second lookup must not re-trigger any tier")
}

func TestGetQuotes_StopsEarlyWhenResolved(t *testing.T) {
	first := &mockResolver{name: "first", resolve: func(tickers []string) map[string]*models.TickerQuote {
		out := map[string]*models.TickerQuote{}
		for _, tk := range tickers {
			out[tk] = &models.TickerQuote{CurrentPrice: 1, DataQuality: models.DataQualityPrimary}
		}
		return out
	}}
	second := &mockResolver{name: "second", resolve: func([]string) map[string]*models.TickerQuote { return nil }}
	svc := NewService([]Resolver{first, second}, nil, common.NewSilentLogger())

	quotes := svc.GetQuotes(context.Background(), []string{"A", "B"})
	assert.Len(t, quotes, 2)
	assert.Equal(t, "A", quotes["A"].Ticker)
	assert.Empty(t, second.received)
}

func TestGetQuotes_RejectsUnusableQuotes(t *testing.T) {
	bad := &mockResolver{name: "bad", resolve: func(tickers []string) map[string]*models.TickerQuote {
		return map[string]*models.TickerQuote{
			"A":     {CurrentPrice: 0, DataQuality: models.DataQualityPrimary},
			"B":     {CurrentPrice: 5},
			"OTHER": {CurrentPrice: 5, DataQuality: models.DataQualityPrimary},
		}
	}}
	svc := NewService([]Resolver{bad}, nil, common.NewSilentLogger())

	quotes := svc.GetQuotes(context.Background(), []string{"A", "B"})
	assert.Empty(t, quotes, "terminal unavailability leaves tickers absent")
}

func TestGetQuotes_CancelledContextStopsEscalation(t *testing.T) {
	client := &mockMarketClient{history: map[string][]models.PriceBar{"ABEO": bars(5.50, 5.77)}}
	launcher := &mockLauncher{session: &mockSession{}}
	svc := newTestService(client, launcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	quotes := svc.GetQuotes(ctx, []string{"ABEO", "ZZZZ"})
	assert.Empty(t, quotes, "no tier may run on a cancelled context")
	assert.Zero(t, client.downloadCalls)
	assert.False(t, launcher.called)

	// Nothing simulated was cached, so a live context still gets real data
	quotes = svc.GetQuotes(context.Background(), []string{"ABEO"})
	require.Contains(t, quotes, "ABEO")
	assert.Equal(t, models.DataQualityPrimary, quotes["ABEO"].DataQuality)
}

func TestBrowserResolver_CancelledContextSkipsLaunch(t *testing.T) {
	launcher := &mockLauncher{session: &mockSession{}}
	r := NewBrowserResolver(launcher, 0, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolved, pending := r.Resolve(ctx, []string{"ABEO"})
	assert.Empty(t, resolved)
	assert.Equal(t, []string{"ABEO"}, pending)
	assert.False(t, launcher.called)
}

func TestNormalizeTickers(t *testing.T) {
	assert.Equal(t, []string{"ABEO", "^GSPC", "XBI"}, NormalizeTickers([]string{" abeo", "^gspc", "", "ABEO", "xbi", "^GSPC"}))
	assert.Empty(t, NormalizeTickers(nil))
}
