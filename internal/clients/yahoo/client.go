// Package yahoo provides the primary market-data client backed by go-yfinance
package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

const (
	DefaultRateLimit = 5 // metadata lookups per second
	DefaultInterval  = "1d"
)

// backend is the raw data source behind the client
type backend interface {
	download(symbols []string, period string) (map[string][]models.PriceBar, map[string]error, error)
	marketCap(symbol string) (int64, error)
	history(symbol, period string) ([]models.PriceBar, error)
}

// Client implements MarketDataClient over Yahoo Finance
type Client struct {
	backend backend
	logger  *common.Logger
	limiter *rate.Limiter
	timeout time.Duration
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit for per-ticker calls
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout bounds each underlying call
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func withBackend(b backend) ClientOption {
	return func(c *Client) {
		c.backend = b
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		backend: yfinanceBackend{},
		logger:  common.NewSilentLogger(),
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		timeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DownloadHistory fetches daily bars for all tickers in a single batched call.
// Per-symbol errors are logged and the symbol is omitted from the result.
func (c *Client) DownloadHistory(ctx context.Context, tickers []string, period string) (map[string][]models.PriceBar, error) {
	if len(tickers) == 0 {
		return map[string][]models.PriceBar{}, nil
	}

	start := time.Now()
	var (
		data    map[string][]models.PriceBar
		symErrs map[string]error
	)
	err := c.call(ctx, func() error {
		var err error
		data, symErrs, err = c.backend.download(tickers, period)
		return err
	})
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Int("tickers", len(tickers)).Dur("elapsed", elapsed).Msg("Yahoo batch download failed")
		return nil, fmt.Errorf("batch download: %w", err)
	}

	out := make(map[string][]models.PriceBar, len(data))
	for sym, bars := range data {
		if len(bars) > 0 {
			out[strings.ToUpper(sym)] = bars
		}
	}
	for sym, symErr := range symErrs {
		c.logger.Warn().Err(symErr).Str("ticker", sym).Msg("Yahoo download returned no data for ticker")
	}

	c.logger.Info().Int("requested", len(tickers)).Int("returned", len(out)).Dur("elapsed", elapsed).Msg("Yahoo batch download")
	return out, nil
}

// MarketCap returns the ticker's market capitalisation, 0 when the source does not report one (indices)
func (c *Client) MarketCap(ctx context.Context, ticker string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	var mc int64
	err := c.call(ctx, func() error {
		var err error
		mc, err = c.backend.marketCap(ticker)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("market cap for %s: %w", ticker, err)
	}
	if mc < 0 {
		mc = 0
	}
	return mc, nil
}

// History returns daily bars for a single ticker
func (c *Client) History(ctx context.Context, ticker string, period string) ([]models.PriceBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var bars []models.PriceBar
	err := c.call(ctx, func() error {
		var err error
		bars, err = c.backend.history(ticker, period)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", ticker, err)
	}

	c.logger.Debug().Str("ticker", ticker).Str("period", period).Int("bars", len(bars)).Msg("Yahoo history")
	return bars, nil
}

// call runs fn bounded by the client timeout and ctx. The backend library is
// not context aware, so an abandoned call finishes in the background.
func (c *Client) call(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
