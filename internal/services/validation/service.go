// Package validation checks daily portfolio snapshots for arithmetic
// consistency, position limits, continuity and price plausibility.
package validation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
	"github.com/bobmcallan/microcap/internal/models"
)

// Config holds the validation policy values
type Config struct {
	PriceTolerance      float64 // fractional band around recent high/low
	MathTolerance       float64 // absolute currency tolerance
	MaxPositionPct      float64 // max single position as a fraction of equity
	ContinuityThreshold float64 // fractional day-over-day equity change that warns
	HistoryPeriod       string
}

// DefaultConfig returns the standard policy
func DefaultConfig() Config {
	return Config{
		PriceTolerance:      0.2,
		MathTolerance:       0.01,
		MaxPositionPct:      0.35,
		ContinuityThreshold: 0.5,
		HistoryPeriod:       "5d",
	}
}

// ConfigFrom builds a Config from application settings, keeping defaults for unset values
func ConfigFrom(c common.ValidationConfig) Config {
	cfg := DefaultConfig()
	if c.PriceTolerance > 0 {
		cfg.PriceTolerance = c.PriceTolerance
	}
	if c.MathTolerance > 0 {
		cfg.MathTolerance = c.MathTolerance
	}
	if c.MaxPositionPct > 0 {
		cfg.MaxPositionPct = c.MaxPositionPct
	}
	if c.ContinuityThreshold > 0 {
		cfg.ContinuityThreshold = c.ContinuityThreshold
	}
	if c.HistoryPeriod != "" {
		cfg.HistoryPeriod = c.HistoryPeriod
	}
	return cfg
}

// Service implements ValidationService
type Service struct {
	history interfaces.HistoryClient
	config  Config
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a validator. history may be nil, in which case every
// price check fails with a cannot-validate error.
func NewService(history interfaces.HistoryClient, config Config, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		history: history,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// RunFullValidation runs every check in order and returns the report. It
// never fails: problems become error findings and Passed is false.
func (s *Service) RunFullValidation(ctx context.Context, current, previous *models.Snapshot, trade *models.TradeCheck) *models.ValidationReport {
	start := s.now()
	runID := uuid.NewString()
	logger := s.logger.WithCorrelationId(runID)
	findings := NewFindings(logger)

	if current == nil {
		current = &models.Snapshot{}
	}

	logger.Info().Int("rows", len(current.Rows)).Bool("has_previous", previous != nil).Bool("has_trade", trade != nil).Msg("Validation started")

	for _, row := range current.Rows {
		s.ValidatePriceData(ctx, findings, row.Ticker, row.CurrentPrice)
	}
	s.ValidatePortfolioMath(findings, current)
	s.ValidatePortfolioConstraints(findings, current)
	s.ValidateDataContinuity(findings, current, previous)
	if trade != nil {
		s.ValidateTradeExecution(findings, trade)
	}

	duration := s.now().Sub(start)
	report := &models.ValidationReport{
		RunID:           runID,
		Timestamp:       start,
		Passed:          !findings.HasErrors(),
		DurationSeconds: duration.Seconds(),
		Findings:        findings.Items(),
	}

	event := logger.Info()
	if !report.Passed {
		event = logger.Error()
	}
	event.Bool("passed", report.Passed).
		Int("errors", len(report.Errors())).
		Int("warnings", len(report.Warnings())).
		Dur("elapsed", duration).
		Msg("Validation complete")

	return report
}

// Ensure Service implements ValidationService
var _ interfaces.ValidationService = (*Service)(nil)
