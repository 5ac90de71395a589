package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedRow is returned for a ledger row that cannot be parsed or applied
var ErrMalformedRow = errors.New("malformed ledger row")

// TradeAction is BUY or SELL
type TradeAction string

const (
	TradeBuy  TradeAction = "BUY"
	TradeSell TradeAction = "SELL"
)

// Transaction is one row of the transaction ledger
type Transaction struct {
	Line     int             `json:"line"` // 1-based source line, 0 when not from a file
	Date     time.Time       `json:"date,omitempty"`
	Ticker   string          `json:"ticker"`
	Action   TradeAction     `json:"action"`
	Shares   decimal.Decimal `json:"shares"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	StopLoss *float64        `json:"stop_loss,omitempty"`
}
