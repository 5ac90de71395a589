// Package models defines data structures for microcap
package models

import (
	"math"
	"time"
)

// DataQuality tags the provenance of a quote so that simulated data is
// always distinguishable from real data.
type DataQuality string

const (
	DataQualityPrimary   DataQuality = "full_primary"
	DataQualitySecondary DataQuality = "full_secondary"
	DataQualitySimulated DataQuality = "simulated"
)

// IsSimulated reports whether the quote was synthesised offline
func (q DataQuality) IsSimulated() bool {
	return q == DataQualitySimulated
}

// TickerQuote is one symbol's latest market snapshot
type TickerQuote struct {
	Ticker        string      `json:"ticker"`
	Name          string      `json:"name,omitempty"`
	CurrentPrice  float64     `json:"current_price"`
	Change        *float64    `json:"change,omitempty"`         // absolute change from previous close
	ChangePercent *float64    `json:"change_percent,omitempty"` // percentage change from previous close
	MarketCap     int64       `json:"market_cap"`               // currency units, 0 when unknown
	DataQuality   DataQuality `json:"data_quality"`
	FetchedAt     time.Time   `json:"fetched_at"`
}

// MarketCapMillions returns the market cap in millions, rounded to one decimal
func (q *TickerQuote) MarketCapMillions() float64 {
	return math.Round(float64(q.MarketCap)/1e5) / 10
}

// PriceBar is a single trading session from a history source
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
