package models

import "time"

// TotalTicker is the ticker column value of the aggregate row
const TotalTicker = "TOTAL"

// Action values recorded on performance rows
const (
	ActionHold = "HOLD"
)

// Holding is an active position derived from the transaction ledger
type Holding struct {
	Ticker    string   `json:"ticker"`
	Shares    float64  `json:"shares"`
	BuyPrice  float64  `json:"buy_price"`  // average cost per share including fees
	CostBasis float64  `json:"cost_basis"` // total cost allocated to current shares
	StopLoss  *float64 `json:"stop_loss,omitempty"`
}

// ValuedHolding is a holding marked to the current quote
type ValuedHolding struct {
	Holding
	CurrentPrice float64     `json:"current_price"`
	CurrentValue float64     `json:"current_value"`
	PnL          float64     `json:"pnl"`
	PnLPercent   float64     `json:"pnl_percent"`
	DataQuality  DataQuality `json:"data_quality,omitempty"`
	LastUpdated  time.Time   `json:"last_updated"`
	Stale        bool        `json:"stale,omitempty"` // no quote could be resolved
}

// PortfolioRow is one ticker's derived daily performance record
type PortfolioRow struct {
	Date         time.Time `json:"date"`
	Ticker       string    `json:"ticker"`
	Shares       float64   `json:"shares"`
	CostBasis    float64   `json:"cost_basis"`
	StopLoss     *float64  `json:"stop_loss,omitempty"`
	CurrentPrice float64   `json:"current_price"`
	TotalValue   float64   `json:"total_value"`
	PnL          float64   `json:"pnl"`
	Action       string    `json:"action"`
}

// IndexPrice is a named market index reference price on the TOTAL row
type IndexPrice struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price,omitempty"`
}

// TotalRow is the portfolio-level aggregate for one date
type TotalRow struct {
	Date        time.Time    `json:"date"`
	TotalValue  float64      `json:"total_value"`
	PnL         float64      `json:"pnl"`
	CashBalance float64      `json:"cash_balance"`
	TotalEquity float64      `json:"total_equity"`
	Indices     []IndexPrice `json:"indices,omitempty"`
}

// Snapshot is one date's performance rows plus its TOTAL row
type Snapshot struct {
	Date  time.Time      `json:"date"`
	Rows  []PortfolioRow `json:"rows"`
	Total *TotalRow      `json:"total,omitempty"`
}

// EquityPoint is one date on the equity curve
type EquityPoint struct {
	Date        time.Time
	TotalValue  float64
	TotalEquity float64
}
