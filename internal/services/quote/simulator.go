package quote

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/models"
)

// DefaultSimulatedMarketCap is the placeholder market cap of simulated quotes
const DefaultSimulatedMarketCap int64 = 100_000_000

// SimulatorResolver synthesises a plausible quote for every ticker. It does no I/O and never fails.
type SimulatorResolver struct {
	marketCap int64
	logger    *common.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatorResolver creates the tier 3 resolver. A nil rng is seeded from the clock.
func NewSimulatorResolver(marketCap int64, rng *rand.Rand, logger *common.Logger) *SimulatorResolver {
	if marketCap <= 0 {
		marketCap = DefaultSimulatedMarketCap
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x73696d))
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &SimulatorResolver{marketCap: marketCap, rng: rng, logger: logger}
}

func (r *SimulatorResolver) Name() string { return "simulator" }

// Resolve draws a base price uniformly from [1, 300] and jitters it by up to 5%.
func (r *SimulatorResolver) Resolve(_ context.Context, tickers []string) (map[string]*models.TickerQuote, []string) {
	resolved := make(map[string]*models.TickerQuote, len(tickers))

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tickers {
		base := r.uniform(1, 300)
		price := common.Round2(base * r.uniform(0.95, 1.05))
		if price < 0.01 {
			price = 0.01
		}

		r.logger.Warn().Str("ticker", t).Float64("price", price).Msg("Using simulated quote")
		resolved[t] = &models.TickerQuote{
			Ticker:       t,
			CurrentPrice: price,
			MarketCap:    r.marketCap,
			DataQuality:  models.DataQualitySimulated,
			FetchedAt:    time.Now(),
		}
	}

	return resolved, nil
}

func (r *SimulatorResolver) uniform(lo, hi float64) float64 {
	return lo + r.rng.Float64()*(hi-lo)
}
