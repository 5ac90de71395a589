package models

import (
	"strings"
	"time"
)

// FindingLevel is the severity of a validation finding
type FindingLevel string

const (
	LevelSuccess FindingLevel = "SUCCESS"
	LevelWarning FindingLevel = "WARNING"
	LevelError   FindingLevel = "ERROR"
)

// Check names, in execution order
const (
	CheckPrice       = "price"
	CheckMath        = "math"
	CheckConstraints = "constraints"
	CheckContinuity  = "continuity"
	CheckTrade       = "trade"
)

// Finding is one itemised validation result
type Finding struct {
	Level   FindingLevel `json:"level"`
	Check   string       `json:"check"`
	Message string       `json:"message"`
}

// ValidationReport is the record produced once per validation run
type ValidationReport struct {
	RunID           string    `json:"run_id"`
	Timestamp       time.Time `json:"timestamp"`
	Passed          bool      `json:"passed"`
	DurationSeconds float64   `json:"duration_seconds"`
	Findings        []Finding `json:"validation_results"`
}

// Errors returns the error-level findings in order
func (r *ValidationReport) Errors() []Finding {
	return r.byLevel(LevelError)
}

// Warnings returns the warning-level findings in order
func (r *ValidationReport) Warnings() []Finding {
	return r.byLevel(LevelWarning)
}

func (r *ValidationReport) byLevel(level FindingLevel) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Level == level {
			out = append(out, f)
		}
	}
	return out
}

// TradeRecord describes one executed trade to be verified
type TradeRecord struct {
	Action TradeAction `json:"action"`
	Ticker string      `json:"ticker"`
	Shares float64     `json:"shares"`
	Price  float64     `json:"price"`
}

// Balances is a cash and share position at one instant
type Balances struct {
	Cash   float64 `json:"cash"`
	Shares float64 `json:"shares"`
}

// TradeCheck bundles a trade with the balances around it
type TradeCheck struct {
	Trade  TradeRecord `json:"trade"`
	Before Balances    `json:"before"`
	After  Balances    `json:"after"`
}

// ParseTradeAction normalises a BUY/SELL string; ok is false for anything else.
func ParseTradeAction(s string) (TradeAction, bool) {
	switch TradeAction(strings.ToUpper(strings.TrimSpace(s))) {
	case TradeBuy:
		return TradeBuy, true
	case TradeSell:
		return TradeSell, true
	}
	return "", false
}
