package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/microcap/internal/clients/browser"
	"github.com/bobmcallan/microcap/internal/clients/yahoo"
	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/services/portfolio"
	"github.com/bobmcallan/microcap/internal/services/quote"
	"github.com/bobmcallan/microcap/internal/services/validation"
	"github.com/bobmcallan/microcap/internal/storage"
)

// App holds the initialized clients, services and stores.
// It is the shared core behind every cmd/microcap subcommand.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	MarketClient      interfaces.MarketDataClient
	QuoteService      *quote.Service
	ValidationService interfaces.ValidationService
	Ledger            *storage.LedgerFile
	PerformanceLog    *storage.PerformanceLog
	Files             *storage.FileStore
	Builder           *portfolio.Builder
	StartupTime       time.Time

	now    func() time.Time
	closed bool
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration and wires every component.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Config resolution: provided path, MICROCAP_CONFIG, binary dir, then development fallback
	if configPath == "" {
		configPath = os.Getenv("MICROCAP_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "microcap.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/microcap.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	market := yahoo.NewClient(
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Quote.Primary.RateLimit),
		yahoo.WithTimeout(config.Quote.Primary.GetTimeout()),
	)
	launcher := browser.NewLauncher(config.Quote.Browser, logger)

	return newApp(config, logger, market, launcher)
}

// newApp wires the services over the given market data client and browser launcher
func newApp(config *common.Config, logger *common.Logger, market interfaces.MarketDataClient, launcher interfaces.BrowserLauncher) (*App, error) {
	startupStart := time.Now()
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	files, err := storage.NewFileStore(logger, config.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	reference := config.ReferenceIndices()
	indexNames := make([]string, 0, len(reference))
	for _, idx := range reference {
		indexNames = append(indexNames, idx.Name)
	}

	a := &App{
		Config:            config,
		Logger:            logger,
		MarketClient:      market,
		QuoteService:      quote.NewService(resolverChain(config, market, launcher, logger), config.PromptIndices(), logger),
		ValidationService: validation.NewService(market, validation.ConfigFrom(config.Validation), logger),
		Ledger:            storage.NewLedgerFile(config.ResolvePath(config.Portfolio.LedgerFile)),
		PerformanceLog:    storage.NewPerformanceLog(config.ResolvePath(config.Portfolio.PerformanceLog), indexNames, logger),
		Files:             files,
		Builder:           portfolio.NewBuilder(reference, logger),
		StartupTime:       startupStart,
		now:               time.Now,
	}

	logger.Debug().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// resolverChain builds the enabled tiers in fallback order
func resolverChain(config *common.Config, market interfaces.MarketDataClient, launcher interfaces.BrowserLauncher, logger *common.Logger) []quote.Resolver {
	var chain []quote.Resolver
	if config.Quote.Primary.Enabled && market != nil {
		chain = append(chain, quote.NewPrimaryResolver(market, config.Quote.Primary.Period, logger))
	}
	if config.Quote.Browser.Enabled && launcher != nil {
		lo, hi := config.Quote.Browser.GetDelayRange()
		chain = append(chain, quote.NewBrowserResolver(launcher, lo, hi, logger))
	}
	if config.Quote.Simulator.Enabled {
		chain = append(chain, quote.NewSimulatorResolver(config.Quote.Simulator.MarketCap, nil, logger))
	}
	if len(chain) == 0 {
		logger.Warn().Msg("All quote tiers disabled, every ticker will be unresolved")
	}
	return chain
}

// Close releases resources held by the App. Safe to call more than once.
func (a *App) Close() {
	if a.closed {
		return
	}
	a.closed = true
	a.Logger.Debug().Dur("uptime", time.Since(a.StartupTime)).Msg("App closed")
}
