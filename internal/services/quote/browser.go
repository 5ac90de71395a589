package quote

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

// BrowserResolver reads quote pages through one browser session per batch.
// The session is only launched when there is work, and always closed.
type BrowserResolver struct {
	launcher interfaces.BrowserLauncher
	logger   *common.Logger
	minDelay time.Duration
	maxDelay time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBrowserResolver creates the tier 2 resolver. Between tickers it waits a
// random duration in [minDelay, maxDelay].
func NewBrowserResolver(launcher interfaces.BrowserLauncher, minDelay, maxDelay time.Duration, logger *common.Logger) *BrowserResolver {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &BrowserResolver{
		launcher: launcher,
		logger:   logger,
		minDelay: minDelay,
		maxDelay: maxDelay,
		sleep:    sleepContext,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6d6963726f)),
	}
}

func (r *BrowserResolver) Name() string { return "browser" }

// Resolve visits each ticker's quote page in turn. A per-ticker failure leaves
// that ticker pending and moves on; a launch failure leaves all pending.
func (r *BrowserResolver) Resolve(ctx context.Context, tickers []string) (resolved map[string]*models.TickerQuote, pending []string) {
	resolved = make(map[string]*models.TickerQuote)
	if len(tickers) == 0 {
		return resolved, nil
	}

	if ctx.Err() != nil {
		return resolved, tickers
	}

	session, err := r.launcher.Launch(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Browser session failed to launch")
		return resolved, tickers
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Browser session close failed")
		}
	}()

	for i, t := range tickers {
		if i > 0 {
			if err := r.sleep(ctx, r.delay()); err != nil {
				pending = append(pending, tickers[i:]...)
				return resolved, pending
			}
		}

		q, err := r.fetch(ctx, session, t)
		if err != nil {
			r.logger.Warn().Err(err).Str("ticker", t).Msg("Browser quote failed")
			pending = append(pending, t)
			continue
		}
		resolved[t] = q
	}

	return resolved, pending
}

func (r *BrowserResolver) fetch(ctx context.Context, session interfaces.QuoteSession, ticker string) (*models.TickerQuote, error) {
	page, err := session.FetchQuotePage(ctx, ticker)
	if err != nil {
		return nil, err
	}

	price, err := ParsePrice(page.PriceText)
	if err != nil {
		return nil, err
	}

	mc, err := ParseMarketCap(page.MarketCapText)
	if err != nil {
		return nil, err
	}

	return &models.TickerQuote{
		Ticker:       ticker,
		CurrentPrice: price,
		MarketCap:    mc,
		DataQuality:  models.DataQualitySecondary,
		FetchedAt:    time.Now(),
	}, nil
}

func (r *BrowserResolver) delay() time.Duration {
	span := r.maxDelay - r.minDelay
	if span <= 0 {
		return r.minDelay
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minDelay + time.Duration(r.rng.Int64N(int64(span)+1))
}

// ParsePrice parses quote page price text such as "1,234.56"
func ParsePrice(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", text, err)
	}
	if common.IsMissing(v) {
		return 0, fmt.Errorf("invalid price %q", text)
	}
	return v, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
