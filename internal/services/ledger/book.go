// Package ledger derives holdings and cash from the transaction ledger
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/microcap/internal/models"
)

// ErrMalformedRow is returned for a ledger row that cannot be applied
var ErrMalformedRow = models.ErrMalformedRow

type position struct {
	shares   decimal.Decimal
	cost     decimal.Decimal
	stopLoss *float64
}

// Book accumulates transactions in ledger order
type Book struct {
	positions map[string]*position
	order     []string
	buys      decimal.Decimal // shares*price + fee over all buys
	sells     decimal.Decimal // shares*price - fee over all sells
}

// NewBook creates an empty book
func NewBook() *Book {
	return &Book{positions: make(map[string]*position)}
}

// Build applies every transaction and returns the book
func Build(txns []models.Transaction) (*Book, error) {
	b := NewBook()
	for _, t := range txns {
		if err := b.Apply(t); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Apply adds one transaction. A BUY adds shares and shares*price+fee to cost;
// a SELL removes shares and leaves cost untouched.
func (b *Book) Apply(t models.Transaction) error {
	if err := check(t); err != nil {
		return err
	}

	p, ok := b.positions[t.Ticker]
	if !ok {
		p = &position{}
		b.positions[t.Ticker] = p
		b.order = append(b.order, t.Ticker)
	}
	if t.StopLoss != nil {
		sl := *t.StopLoss
		p.stopLoss = &sl
	}

	amount := t.Shares.Mul(t.Price)
	switch t.Action {
	case models.TradeBuy:
		p.shares = p.shares.Add(t.Shares)
		p.cost = p.cost.Add(amount).Add(t.Fee)
		b.buys = b.buys.Add(amount).Add(t.Fee)
	case models.TradeSell:
		p.shares = p.shares.Sub(t.Shares)
		b.sells = b.sells.Add(amount).Sub(t.Fee)
	}
	return nil
}

func check(t models.Transaction) error {
	where := fmt.Sprintf("line %d", t.Line)
	if t.Line == 0 {
		where = t.Ticker
	}
	switch {
	case t.Ticker == "":
		return fmt.Errorf("%w: %s: missing ticker", ErrMalformedRow, where)
	case t.Action != models.TradeBuy && t.Action != models.TradeSell:
		return fmt.Errorf("%w: %s: unknown action %q", ErrMalformedRow, where, t.Action)
	case !t.Shares.IsPositive():
		return fmt.Errorf("%w: %s: shares must be positive, got %s", ErrMalformedRow, where, t.Shares)
	case t.Price.IsNegative():
		return fmt.Errorf("%w: %s: negative price %s", ErrMalformedRow, where, t.Price)
	case t.Fee.IsNegative():
		return fmt.Errorf("%w: %s: negative fee %s", ErrMalformedRow, where, t.Fee)
	}
	return nil
}

// Holdings returns positions with net shares above zero, in order of first appearance
func (b *Book) Holdings() []models.Holding {
	var out []models.Holding
	for _, ticker := range b.order {
		p := b.positions[ticker]
		if !p.shares.IsPositive() {
			continue
		}
		shares, _ := p.shares.Float64()
		cost, _ := p.cost.Float64()
		avg, _ := p.cost.Div(p.shares).Float64()
		out = append(out, models.Holding{
			Ticker:    ticker,
			Shares:    shares,
			BuyPrice:  avg,
			CostBasis: cost,
			StopLoss:  p.stopLoss,
		})
	}
	return out
}

// Shares returns the net share count for a ticker
func (b *Book) Shares(ticker string) float64 {
	p, ok := b.positions[ticker]
	if !ok {
		return 0
	}
	v, _ := p.shares.Float64()
	return v
}

// CashBalance returns initial capital less buys (with fees) plus sells (net of fees)
func (b *Book) CashBalance(initialCapital float64) float64 {
	v, _ := decimal.NewFromFloat(initialCapital).Sub(b.buys).Add(b.sells).Float64()
	return v
}
