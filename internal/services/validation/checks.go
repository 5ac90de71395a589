package validation

import (
	"context"
	"fmt"
	"math"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/models"
)

// ValidatePriceData checks the price against the recent trading range widened
// by the price tolerance. A large move from the last close only warns.
func (s *Service) ValidatePriceData(ctx context.Context, f *Findings, ticker string, price float64) bool {
	tol := s.config.PriceTolerance

	if s.history == nil {
		f.Error(models.CheckPrice, ticker, fmt.Sprintf("cannot validate %s: no history source", ticker))
		return false
	}

	bars, err := s.history.History(ctx, ticker, s.config.HistoryPeriod)
	if err != nil {
		f.Error(models.CheckPrice, ticker, fmt.Sprintf("%s price validation failed: %v", ticker, err))
		return false
	}

	low, high, lastClose, ok := priceRange(bars)
	if !ok {
		f.Error(models.CheckPrice, ticker, fmt.Sprintf("unable to fetch price history for %s", ticker))
		return false
	}

	lower := low * (1 - tol)
	upper := high * (1 + tol)
	if math.IsNaN(price) || price < lower || price > upper {
		f.Error(models.CheckPrice, ticker, fmt.Sprintf("%s price %.2f outside plausible range [%.2f, %.2f]", ticker, price, lower, upper))
		return false
	}

	if diff := math.Abs(price-lastClose) / lastClose; diff > tol {
		f.Warning(models.CheckPrice, ticker, fmt.Sprintf("%s price %.2f differs from last close %.2f by %.1f%%", ticker, price, lastClose, diff*100))
	}

	f.Success(models.CheckPrice, ticker, fmt.Sprintf("%s price check passed: %.2f", ticker, price))
	return true
}

// priceRange returns the lowest low, highest high and latest close over the
// bars with a usable close. Missing highs or lows fall back to the close.
func priceRange(bars []models.PriceBar) (low, high, lastClose float64, ok bool) {
	low, high = math.Inf(1), math.Inf(-1)
	for _, b := range bars {
		if common.IsMissing(b.Close) {
			continue
		}
		l, h := b.Low, b.High
		if common.IsMissing(l) {
			l = b.Close
		}
		if common.IsMissing(h) {
			h = b.Close
		}
		low = math.Min(low, l)
		high = math.Max(high, h)
		lastClose = b.Close
		ok = true
	}
	return low, high, lastClose, ok
}

// ValidatePortfolioMath checks each row's value and PnL formulas and that the
// TOTAL row sums the rows.
func (s *Service) ValidatePortfolioMath(f *Findings, snap *models.Snapshot) bool {
	tol := s.config.MathTolerance
	passed := true

	var valueSum, pnlSum float64
	for _, row := range snap.Rows {
		expectedValue := row.Shares * row.CurrentPrice
		if !common.WithinTolerance(expectedValue, row.TotalValue, tol) {
			f.Error(models.CheckMath, row.Ticker, fmt.Sprintf("%s: total value mismatch, expected %.2f, actual %.2f", row.Ticker, expectedValue, row.TotalValue))
			passed = false
		}

		expectedPnL := row.TotalValue - row.CostBasis
		if !common.WithinTolerance(expectedPnL, row.PnL, tol) {
			f.Error(models.CheckMath, row.Ticker, fmt.Sprintf("%s: PnL mismatch, expected %.2f, actual %.2f", row.Ticker, expectedPnL, row.PnL))
			passed = false
		}

		valueSum += row.TotalValue
		pnlSum += row.PnL
	}

	if total := snap.Total; total != nil {
		if !common.WithinTolerance(valueSum, total.TotalValue, tol) {
			f.Error(models.CheckMath, models.TotalTicker, fmt.Sprintf("TOTAL: total value mismatch, expected %.2f, actual %.2f", valueSum, total.TotalValue))
			passed = false
		}
		if !common.WithinTolerance(pnlSum, total.PnL, tol) {
			f.Error(models.CheckMath, models.TotalTicker, fmt.Sprintf("TOTAL: PnL mismatch, expected %.2f, actual %.2f", pnlSum, total.PnL))
			passed = false
		}
	}

	if passed {
		f.Success(models.CheckMath, "", "portfolio math check passed")
	}
	return passed
}

// ValidatePortfolioConstraints checks that no position exceeds the maximum
// share of total equity. Every row is evaluated.
func (s *Service) ValidatePortfolioConstraints(f *Findings, snap *models.Snapshot) bool {
	if snap.Total == nil {
		f.Error(models.CheckConstraints, "", "missing TOTAL row")
		return false
	}

	equity := snap.Total.TotalEquity
	if equity <= 0 || math.IsNaN(equity) {
		f.Error(models.CheckConstraints, "", fmt.Sprintf("total equity %.2f is not positive, position limits cannot be evaluated", equity))
		return false
	}

	limit := s.config.MaxPositionPct
	passed := true
	for _, row := range snap.Rows {
		pct := row.TotalValue / equity
		if pct > limit {
			f.Error(models.CheckConstraints, row.Ticker, fmt.Sprintf("%s position %.1f%% exceeds limit %.1f%%", row.Ticker, pct*100, limit*100))
			passed = false
		}
	}

	if passed {
		f.Success(models.CheckConstraints, "", "portfolio constraints check passed")
	}
	return passed
}

// ValidateDataContinuity warns on a large day-over-day change in total
// equity. It never fails validation.
func (s *Service) ValidateDataContinuity(f *Findings, current, previous *models.Snapshot) bool {
	if previous == nil {
		f.Success(models.CheckContinuity, "", "first day, continuity check skipped")
		return true
	}

	var cur, prev float64
	if current != nil && current.Total != nil {
		cur = current.Total.TotalEquity
	}
	if previous.Total != nil {
		prev = previous.Total.TotalEquity
	}

	if prev <= 0 {
		f.Warning(models.CheckContinuity, "", fmt.Sprintf("previous total equity %.2f is not positive, change cannot be measured", prev))
	} else if change := math.Abs(cur-prev) / prev; change > s.config.ContinuityThreshold {
		f.Warning(models.CheckContinuity, "", fmt.Sprintf("total equity changed %.1f%% (from $%.2f to $%.2f)", change*100, prev, cur))
	}

	f.Success(models.CheckContinuity, "", "data continuity check passed")
	return true
}

// ValidateTradeExecution checks that cash and shares moved by the trade
// amount to strictly within the math tolerance.
func (s *Service) ValidateTradeExecution(f *Findings, tc *models.TradeCheck) bool {
	tol := s.config.MathTolerance
	trade := tc.Trade
	ticker := trade.Ticker

	action, ok := models.ParseTradeAction(string(trade.Action))
	if !ok {
		f.Error(models.CheckTrade, ticker, fmt.Sprintf("unknown trade action %q for %s", trade.Action, ticker))
		return false
	}

	amount := trade.Shares * trade.Price
	expectedCash, expectedShares := -amount, trade.Shares
	verb := "buy"
	if action == models.TradeSell {
		expectedCash, expectedShares = amount, -trade.Shares
		verb = "sell"
	}

	actualCash := tc.After.Cash - tc.Before.Cash
	actualShares := tc.After.Shares - tc.Before.Shares
	passed := true

	if !common.StrictlyWithin(expectedCash, actualCash, tol) {
		prec := 2
		if tol < 0.01 {
			prec = 4
		}
		f.Error(models.CheckTrade, ticker, fmt.Sprintf("%s %s cash change mismatch, expected %.*f, actual %.*f", verb, ticker, prec, expectedCash, prec, actualCash))
		passed = false
	}
	if !common.StrictlyWithin(expectedShares, actualShares, tol) {
		f.Error(models.CheckTrade, ticker, fmt.Sprintf("%s %s share change mismatch, expected %g, actual %g", verb, ticker, expectedShares, actualShares))
		passed = false
	}

	if passed {
		f.Success(models.CheckTrade, ticker, fmt.Sprintf("%s %g %s @ $%.2f verified", action, trade.Shares, ticker, trade.Price))
	}
	return passed
}
