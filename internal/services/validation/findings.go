package validation

import (
	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/models"
)

// Findings is the append-only list of results for one validation run.
// Every finding is logged as it is recorded.
type Findings struct {
	items  []models.Finding
	logger *common.Logger
}

// NewFindings creates an empty findings list
func NewFindings(logger *common.Logger) *Findings {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Findings{logger: logger}
}

// Success records a passing result
func (f *Findings) Success(check, ticker, message string) {
	f.add(models.LevelSuccess, check, ticker, message)
}

// Warning records a result that does not fail validation
func (f *Findings) Warning(check, ticker, message string) {
	f.add(models.LevelWarning, check, ticker, message)
}

// Error records a failing result
func (f *Findings) Error(check, ticker, message string) {
	f.add(models.LevelError, check, ticker, message)
}

func (f *Findings) add(level models.FindingLevel, check, ticker, message string) {
	f.items = append(f.items, models.Finding{Level: level, Check: check, Message: message})

	event := f.logger.Info()
	switch level {
	case models.LevelWarning:
		event = f.logger.Warn()
	case models.LevelError:
		event = f.logger.Error()
	}
	event = event.Str("check", check)
	if ticker != "" {
		event = event.Str("ticker", ticker)
	}
	event.Msg(message)
}

// Items returns a copy of the findings in recorded order
func (f *Findings) Items() []models.Finding {
	out := make([]models.Finding, len(f.items))
	copy(out, f.items)
	return out
}

// HasErrors reports whether any error-level finding was recorded
func (f *Findings) HasErrors() bool {
	for _, item := range f.items {
		if item.Level == models.LevelError {
			return true
		}
	}
	return false
}
