package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/microcap/internal/models"
)

func txn(action models.TradeAction, ticker, shares, price, fee string) models.Transaction {
	return models.Transaction{
		Ticker: ticker,
		Action: action,
		Shares: decimal.RequireFromString(shares),
		Price:  decimal.RequireFromString(price),
		Fee:    decimal.RequireFromString(fee),
	}
}

func TestBuild_SingleBuy(t *testing.T) {
	book, err := Build([]models.Transaction{txn(models.TradeBuy, "ABEO", "6", "5.77", "0")})
	require.NoError(t, err)

	holdings := book.Holdings()
	require.Len(t, holdings, 1)
	assert.Equal(t, "ABEO", holdings[0].Ticker)
	assert.Equal(t, 6.0, holdings[0].Shares)
	assert.Equal(t, 34.62, holdings[0].CostBasis)
	assert.Equal(t, 5.77, holdings[0].BuyPrice)
	assert.Equal(t, 65.38, book.CashBalance(100))
}

func TestBuild_FeesAndSells(t *testing.T) {
	sl := 4.5
	sell := txn(models.TradeSell, "ABEO", "2", "6.00", "0.50")
	buy2 := txn(models.TradeBuy, "ABEO", "4", "5.00", "0")
	buy2.StopLoss = &sl

	book, err := Build([]models.Transaction{
		txn(models.TradeBuy, "ABEO", "6", "5.77", "1.00"),
		txn(models.TradeBuy, "XYZ", "10", "1.00", "0"),
		sell,
		buy2,
		txn(models.TradeSell, "XYZ", "10", "1.20", "0"),
	})
	require.NoError(t, err)

	holdings := book.Holdings()
	require.Len(t, holdings, 1, "fully sold tickers are excluded")
	h := holdings[0]
	assert.Equal(t, 8.0, h.Shares)
	assert.Equal(t, 55.62, h.CostBasis, "sells leave cost untouched")
	assert.InDelta(t, 6.9525, h.BuyPrice, 1e-9)
	require.NotNil(t, h.StopLoss)
	assert.Equal(t, 4.5, *h.StopLoss)

	// 100 - (34.62+1) - 10 + (12-0.5) - 20 + 12
	assert.Equal(t, 57.88, book.CashBalance(100))
	assert.Equal(t, 0.0, book.Shares("XYZ"))
	assert.Equal(t, 0.0, book.Shares("NONE"))
}

func TestApply_MalformedRows(t *testing.T) {
	tests := []struct {
		name string
		t    models.Transaction
	}{
		{"no ticker", txn(models.TradeBuy, "", "1", "1", "0")},
		{"bad action", txn("HOLD", "ABEO", "1", "1", "0")},
		{"zero shares", txn(models.TradeBuy, "ABEO", "0", "1", "0")},
		{"negative price", txn(models.TradeBuy, "ABEO", "1", "-1", "0")},
		{"negative fee", txn(models.TradeBuy, "ABEO", "1", "1", "-0.1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.t.Line = 7
			err := NewBook().Apply(tt.t)
			assert.ErrorIs(t, err, ErrMalformedRow)
			assert.Contains(t, err.Error(), "line 7")
		})
	}
}

func TestBuild_StopsAtFirstError(t *testing.T) {
	_, err := Build([]models.Transaction{
		txn(models.TradeBuy, "ABEO", "6", "5.77", "0"),
		txn("XFER", "ABEO", "1", "1", "0"),
	})
	assert.ErrorIs(t, err, ErrMalformedRow)
}
