// Package quote provides the tiered price fetcher: primary batch history,
// browser quote pages, then an offline simulator.
package quote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

// Resolver is one tier of the fallback chain. It returns the quotes it could
// resolve and the tickers it could not; it never returns an error.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, tickers []string) (resolved map[string]*models.TickerQuote, pending []string)
}

// Service resolves tickers through an ordered resolver chain and caches the
// results for its lifetime. Cached quotes are never replaced or mutated.
type Service struct {
	resolvers []Resolver
	indices   []common.IndexConfig
	logger    *common.Logger
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]*models.TickerQuote
}

// NewService creates a fetcher over the given resolvers, tried in order.
// indices are the market indices reported by GetMajorIndices.
func NewService(resolvers []Resolver, indices []common.IndexConfig, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		resolvers: resolvers,
		indices:   indices,
		logger:    logger,
		now:       time.Now,
		cache:     make(map[string]*models.TickerQuote),
	}
}

// GetQuotes resolves every ticker, consulting the cache first. Only uncached
// tickers are dispatched, and each tier only sees what the previous tiers left
// pending. A ticker is absent from the result if every tier failed or ctx was
// cancelled before it resolved. Cancellation never escalates to a later tier.
func (s *Service) GetQuotes(ctx context.Context, tickers []string) map[string]*models.TickerQuote {
	requested := NormalizeTickers(tickers)
	result := make(map[string]*models.TickerQuote, len(requested))

	pending := s.fromCache(requested, result)
	if len(pending) == 0 {
		return result
	}

	for _, r := range s.resolvers {
		if len(pending) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			s.logger.Warn().Err(err).Str("tier", r.Name()).Int("pending", len(pending)).Msg("Quote fetch cancelled")
			return result
		}

		start := time.Now()
		resolved, left := r.Resolve(ctx, pending)
		s.store(pending, resolved, result)
		pending = remaining(left, result)

		s.logger.Info().
			Str("tier", r.Name()).
			Int("resolved", len(resolved)).
			Int("pending", len(pending)).
			Dur("elapsed", time.Since(start)).
			Msg("Quote tier complete")
	}

	for _, t := range pending {
		s.logger.Warn().Str("ticker", t).Msg("No quote resolved after all tiers")
	}

	return result
}

// GetQuote resolves a single ticker
func (s *Service) GetQuote(ctx context.Context, ticker string) (*models.TickerQuote, bool) {
	key := normalizeTicker(ticker)
	if key == "" {
		return nil, false
	}
	q, ok := s.GetQuotes(ctx, []string{key})[key]
	return q, ok
}

// fromCache copies cached quotes into result and returns the uncached tickers
func (s *Service) fromCache(tickers []string, result map[string]*models.TickerQuote) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []string
	for _, t := range tickers {
		if q, ok := s.cache[t]; ok {
			result[t] = q
			continue
		}
		pending = append(pending, t)
	}
	return pending
}

// store merges a tier's results into the cache. Only requested tickers with a
// usable quote are accepted; an existing entry always wins.
func (s *Service) store(requested []string, resolved map[string]*models.TickerQuote, result map[string]*models.TickerQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range requested {
		q, ok := resolved[t]
		if !ok || q == nil || q.DataQuality == "" || common.IsMissing(q.CurrentPrice) {
			continue
		}
		if existing, ok := s.cache[t]; ok {
			result[t] = existing
			continue
		}
		q.Ticker = t
		if q.FetchedAt.IsZero() {
			q.FetchedAt = s.now()
		}
		s.cache[t] = q
		result[t] = q
	}
}

// remaining filters the resolver's pending list against what is now resolved
func remaining(pending []string, result map[string]*models.TickerQuote) []string {
	var out []string
	for _, t := range pending {
		if _, ok := result[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// NormalizeTickers trims and uppercases tickers, dropping blanks and
// duplicates while preserving first-seen order.
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		key := normalizeTicker(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
