package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultMicroCapLimit is the market cap ceiling (in currency units) for a micro-cap.
const DefaultMicroCapLimit int64 = 300_000_000

// Config holds all configuration for microcap
type Config struct {
	Environment string           `toml:"environment"`
	DataPath    string           `toml:"data_path"`
	Portfolio   PortfolioConfig  `toml:"portfolio"`
	Quote       QuoteConfig      `toml:"quote"`
	Validation  ValidationConfig `toml:"validation"`
	Logging     LoggingConfig    `toml:"logging"`
}

// PortfolioConfig holds ledger and performance log settings
type PortfolioConfig struct {
	LedgerFile     string        `toml:"ledger_file"`
	PerformanceLog string        `toml:"performance_log"`
	InitialCapital float64       `toml:"initial_capital"`
	MicroCapLimit  int64         `toml:"micro_cap_limit"`
	Indices        []IndexConfig `toml:"indices"`
}

// IndexConfig names a market index ticker tracked alongside holdings.
// Reference indices appear in the TOTAL row; prompt indices in the prompt digest.
type IndexConfig struct {
	Name      string `toml:"name"`
	Ticker    string `toml:"ticker"`
	Reference bool   `toml:"reference"`
	Prompt    bool   `toml:"prompt"`
}

// QuoteConfig holds settings for the tiered price fetcher
type QuoteConfig struct {
	Primary   PrimaryConfig   `toml:"primary"`
	Browser   BrowserConfig   `toml:"browser"`
	Simulator SimulatorConfig `toml:"simulator"`
}

// PrimaryConfig holds settings for the batched history source (tier 1)
type PrimaryConfig struct {
	Enabled   bool   `toml:"enabled"`
	Period    string `toml:"period"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *PrimaryConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// BrowserConfig holds settings for the interactive quote-page source (tier 2)
type BrowserConfig struct {
	Enabled        bool   `toml:"enabled"`
	Headless       bool   `toml:"headless"`
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	PageTimeout    string `toml:"page_timeout"`
	ConsentTimeout string `toml:"consent_timeout"`
	MinDelay       string `toml:"min_delay"`
	MaxDelay       string `toml:"max_delay"`
}

// GetPageTimeout parses and returns the page load / element wait timeout
func (c *BrowserConfig) GetPageTimeout() time.Duration {
	return parseDurationOr(c.PageTimeout, 60*time.Second)
}

// GetConsentTimeout parses and returns the consent dialog timeout
func (c *BrowserConfig) GetConsentTimeout() time.Duration {
	return parseDurationOr(c.ConsentTimeout, 5*time.Second)
}

// GetDelayRange returns the randomised inter-ticker delay bounds
func (c *BrowserConfig) GetDelayRange() (time.Duration, time.Duration) {
	lo := parseDurationOr(c.MinDelay, time.Second)
	hi := parseDurationOr(c.MaxDelay, 3*time.Second)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// SimulatorConfig holds settings for the offline simulator (tier 3)
type SimulatorConfig struct {
	Enabled   bool  `toml:"enabled"`
	MarketCap int64 `toml:"market_cap"`
}

// ValidationConfig holds the integrity validator policy values
type ValidationConfig struct {
	PriceTolerance      float64 `toml:"price_tolerance"`
	MathTolerance       float64 `toml:"math_tolerance"`
	MaxPositionPct      float64 `toml:"max_position_pct"`
	ContinuityThreshold float64 `toml:"continuity_threshold"`
	HistoryPeriod       string  `toml:"history_period"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		DataPath:    "data",
		Portfolio: PortfolioConfig{
			LedgerFile:     "portfolio_tracker.csv",
			PerformanceLog: "daily_performance_log.csv",
			InitialCapital: 100.00,
			MicroCapLimit:  DefaultMicroCapLimit,
			Indices: []IndexConfig{
				{Name: "S&P 500", Ticker: "^GSPC", Reference: true, Prompt: true},
				{Name: "Russell 2000", Ticker: "^RUT", Reference: true, Prompt: true},
				{Name: "XBI", Ticker: "XBI", Reference: true},
			},
		},
		Quote: QuoteConfig{
			Primary: PrimaryConfig{
				Enabled:   true,
				Period:    "1y",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Browser: BrowserConfig{
				Enabled:        true,
				Headless:       true,
				BaseURL:        "https://finance.yahoo.com/quote",
				UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
				PageTimeout:    "60s",
				ConsentTimeout: "5s",
				MinDelay:       "1s",
				MaxDelay:       "3s",
			},
			Simulator: SimulatorConfig{
				Enabled:   true,
				MarketCap: 100_000_000,
			},
		},
		Validation: ValidationConfig{
			PriceTolerance:      0.2,
			MathTolerance:       0.01,
			MaxPositionPct:      0.35,
			ContinuityThreshold: 0.5,
			HistoryPeriod:       "5d",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console", "file"},
			FilePath:   "logs/microcap.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MICROCAP_ENV"); env != "" {
		config.Environment = env
	}

	if path := os.Getenv("MICROCAP_DATA_PATH"); path != "" {
		config.DataPath = path
	}

	if level := os.Getenv("MICROCAP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if ledger := os.Getenv("MICROCAP_LEDGER"); ledger != "" {
		config.Portfolio.LedgerFile = ledger
	}

	if v := os.Getenv("MICROCAP_INITIAL_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Portfolio.InitialCapital = f
		}
	}

	if v := os.Getenv("MICROCAP_BROWSER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Quote.Browser.Enabled = b
		}
	}

	if v := os.Getenv("MICROCAP_SIMULATOR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Quote.Simulator.Enabled = b
		}
	}
}

// ResolvePath joins a relative path onto DataPath. Absolute paths are returned unchanged.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataPath, p)
}

// ReferenceIndices returns the indices recorded on the TOTAL row, in config order.
func (c *Config) ReferenceIndices() []IndexConfig {
	var out []IndexConfig
	for _, idx := range c.Portfolio.Indices {
		if idx.Reference {
			out = append(out, idx)
		}
	}
	return out
}

// PromptIndices returns the indices summarised in the prompt digest, in config order.
func (c *Config) PromptIndices() []IndexConfig {
	var out []IndexConfig
	for _, idx := range c.Portfolio.Indices {
		if idx.Prompt {
			out = append(out, idx)
		}
	}
	return out
}
