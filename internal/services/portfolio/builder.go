// Package portfolio builds daily performance snapshots and renders the equity chart
package portfolio

import (
	"strings"
	"time"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/models"
)

// Builder marks holdings to quotes and produces one date's snapshot
type Builder struct {
	indices []common.IndexConfig
	logger  *common.Logger
}

// NewBuilder creates a snapshot builder. indices are recorded on the TOTAL row in order.
func NewBuilder(indices []common.IndexConfig, logger *common.Logger) *Builder {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Builder{indices: indices, logger: logger}
}

// Build produces the rows and TOTAL row for date. Every value is rounded to
// the cent and the TOTAL sums the rounded rows, so the snapshot is
// arithmetically consistent as written. A holding without a quote is valued at zero.
func (b *Builder) Build(date time.Time, holdings []models.Holding, quotes map[string]*models.TickerQuote, cash float64) *models.Snapshot {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	snap := &models.Snapshot{Date: day}

	var totalValue, totalPnL float64
	for _, h := range holdings {
		var price float64
		q, ok := quotes[strings.ToUpper(h.Ticker)]
		switch {
		case !ok:
			b.logger.Warn().Str("ticker", h.Ticker).Msg("No quote for holding, valuing at zero")
		case q.DataQuality.IsSimulated():
			b.logger.Warn().Str("ticker", h.Ticker).Float64("price", q.CurrentPrice).Msg("Holding valued with simulated price")
			price = q.CurrentPrice
		default:
			price = q.CurrentPrice
		}

		row := NewRow(day, h, price)
		snap.Rows = append(snap.Rows, row)
		totalValue += row.TotalValue
		totalPnL += row.PnL
	}

	totalValue = common.Round2(totalValue)
	cash = common.Round2(cash)
	snap.Total = &models.TotalRow{
		Date:        day,
		TotalValue:  totalValue,
		PnL:         common.Round2(totalPnL),
		CashBalance: cash,
		TotalEquity: common.Round2(totalValue + cash),
		Indices:     b.indexPrices(quotes),
	}

	b.logger.Info().
		Str("date", day.Format("2006-01-02")).
		Int("rows", len(snap.Rows)).
		Float64("total_value", snap.Total.TotalValue).
		Float64("total_equity", snap.Total.TotalEquity).
		Msg("Snapshot built")

	return snap
}

// NewRow values one holding at price, rounded to the cent
func NewRow(date time.Time, h models.Holding, price float64) models.PortfolioRow {
	price = common.Round2(price)
	cost := common.Round2(h.CostBasis)
	value := common.Round2(h.Shares * price)
	return models.PortfolioRow{
		Date:         date,
		Ticker:       strings.ToUpper(h.Ticker),
		Shares:       h.Shares,
		CostBasis:    cost,
		StopLoss:     h.StopLoss,
		CurrentPrice: price,
		TotalValue:   value,
		PnL:          common.Round2(value - cost),
		Action:       models.ActionHold,
	}
}

func (b *Builder) indexPrices(quotes map[string]*models.TickerQuote) []models.IndexPrice {
	out := make([]models.IndexPrice, 0, len(b.indices))
	for _, idx := range b.indices {
		ip := models.IndexPrice{Name: idx.Name}
		if q, ok := quotes[strings.ToUpper(idx.Ticker)]; ok {
			p := common.Round2(q.CurrentPrice)
			ip.Price = &p
		}
		out = append(out, ip)
	}
	return out
}

// EquityCurve extracts one point per snapshot that has a TOTAL row
func EquityCurve(snapshots []*models.Snapshot) []models.EquityPoint {
	var out []models.EquityPoint
	for _, s := range snapshots {
		if s == nil || s.Total == nil {
			continue
		}
		out = append(out, models.EquityPoint{
			Date:        s.Date,
			TotalValue:  s.Total.TotalValue,
			TotalEquity: s.Total.TotalEquity,
		})
	}
	return out
}
