package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/microcap/internal/models"
)

func TestParseLedger(t *testing.T) {
	in := "Date,Ticker,Action,Shares,Price,Fee,StopLoss\n" +
		"2025-08-04,abeo,buy,6,5.77,,4.90\n" +
		"\n" +
		"2025-08-05,ABEO,SELL,2,6.10,0.50,\n"

	txns, err := ParseLedger(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	first := txns[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "ABEO", first.Ticker)
	assert.Equal(t, models.TradeBuy, first.Action)
	assert.Equal(t, "34.62", first.Shares.Mul(first.Price).StringFixed(2))
	assert.True(t, first.Fee.IsZero())
	require.NotNil(t, first.StopLoss)
	assert.Equal(t, 4.90, *first.StopLoss)
	assert.Equal(t, "2025-08-04", first.Date.Format("2006-01-02"))

	second := txns[1]
	assert.Equal(t, 4, second.Line)
	assert.Equal(t, models.TradeSell, second.Action)
	assert.Equal(t, "0.5", second.Fee.String())
	assert.Nil(t, second.StopLoss)
}

func TestParseLedger_HeaderVariants(t *testing.T) {
	in := "\ufeffticker, action, shares, price, Stop Loss\nABEO,BUY,6,5.77,4.9\n"
	txns, err := ParseLedger(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].Date.IsZero())
	assert.NotNil(t, txns[0].StopLoss)
}

func TestParseLedger_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"missing column", "Ticker,Action,Shares\nABEO,BUY,6\n", `missing "price" column`},
		{"bad action", "Ticker,Action,Shares,Price\nABEO,HOLD,6,5.77\n", `line 2: unknown action "HOLD"`},
		{"bad shares", "Ticker,Action,Shares,Price\nABEO,BUY,six,5.77\n", `line 2: invalid shares "six"`},
		{"bad fee", "Ticker,Action,Shares,Price,Fee\nABEO,BUY,6,5.77,x\n", `invalid fee "x"`},
		{"bad date", "Date,Ticker,Action,Shares,Price\n08/04/2025,ABEO,BUY,6,5.77\n", `invalid date`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLedger(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrMalformedRow)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLedgerFile_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio_tracker.csv")
	require.NoError(t, os.WriteFile(path, []byte("Ticker,Action,Shares,Price,Fee\nABEO,BUY,6,5.77,0\n"), 0644))

	txns, err := NewLedgerFile(path).Load()
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	_, err = NewLedgerFile(filepath.Join(dir, "missing.csv")).Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
