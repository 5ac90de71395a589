package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/models"
)

// --- Mocks ---

type mockHistoryClient struct {
	bars   map[string][]models.PriceBar
	err    error
	called []string
}

func (m *mockHistoryClient) History(_ context.Context, ticker string, _ string) ([]models.PriceBar, error) {
	m.called = append(m.called, ticker)
	if m.err != nil {
		return nil, m.err
	}
	return m.bars[ticker], nil
}

func flatHistory(price float64) []models.PriceBar {
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, 5)
	for i := range out {
		out[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: price, High: price, Low: price, Close: price}
	}
	return out
}

func newTestService(history *mockHistoryClient) *Service {
	svc := NewService(history, DefaultConfig(), common.NewSilentLogger())
	clock := time.Date(2025, 8, 5, 16, 30, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}
	return svc
}

func ptr(v float64) *float64 { return &v }

// sampleSnapshot is one ABEO position plus cash
func sampleSnapshot() *models.Snapshot {
	date := time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)
	return &models.Snapshot{
		Date: date,
		Rows: []models.PortfolioRow{
			{Date: date, Ticker: "ABEO", Shares: 6, CostBasis: 34.62, StopLoss: ptr(4.90), CurrentPrice: 5.77, TotalValue: 34.62, PnL: 0, Action: models.ActionHold},
		},
		Total: &models.TotalRow{Date: date, TotalValue: 34.62, PnL: 0, CashBalance: 65.38, TotalEquity: 100},
	}
}

func levels(findings []models.Finding, check string) []models.FindingLevel {
	var out []models.FindingLevel
	for _, f := range findings {
		if f.Check == check {
			out = append(out, f.Level)
		}
	}
	return out
}

func TestRunFullValidation_SamplePasses(t *testing.T) {
	history := &mockHistoryClient{bars: map[string][]models.PriceBar{"ABEO": flatHistory(5.77)}}
	svc := newTestService(history)

	report := svc.RunFullValidation(context.Background(), sampleSnapshot(), nil, nil)

	assert.True(t, report.Passed)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 0.25, report.DurationSeconds)
	assert.Empty(t, report.Errors())
	assert.Equal(t, []string{"ABEO"}, history.called)

	// Checks run in fixed order
	var checks []string
	for _, f := range report.Findings {
		checks = append(checks, f.Check)
	}
	assert.Equal(t, []string{models.CheckPrice, models.CheckMath, models.CheckConstraints, models.CheckContinuity}, checks)
	assert.Equal(t, "first day, continuity check skipped", report.Findings[3].Message)
}

func TestRunFullValidation_PositionLimitFails(t *testing.T) {
	// ABEO is 34.62% of equity in the sample; shrink cash so it dominates.
	snap := sampleSnapshot()
	snap.Total.CashBalance = 10
	snap.Total.TotalEquity = 44.62

	svc := newTestService(&mockHistoryClient{bars: map[string][]models.PriceBar{"ABEO": flatHistory(5.77)}})
	report := svc.RunFullValidation(context.Background(), snap, nil, nil)

	assert.False(t, report.Passed)
	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, models.CheckConstraints, errs[0].Check)
	assert.Contains(t, errs[0].Message, "ABEO")
	assert.Contains(t, errs[0].Message, "77.6%")
	assert.Contains(t, errs[0].Message, "35.0%")
}

func TestRunFullValidation_ChecksAreIndependent(t *testing.T) {
	snap := sampleSnapshot()
	snap.Rows[0].TotalValue = 40 // breaks math and position size

	svc := newTestService(&mockHistoryClient{err: errors.New("no network")})
	report := svc.RunFullValidation(context.Background(), snap, nil, nil)

	assert.False(t, report.Passed)
	assert.Equal(t, []models.FindingLevel{models.LevelError}, levels(report.Findings, models.CheckPrice))
	assert.Contains(t, levels(report.Findings, models.CheckMath), models.LevelError)
	assert.Equal(t, []models.FindingLevel{models.LevelError}, levels(report.Findings, models.CheckConstraints))
	assert.Equal(t, []models.FindingLevel{models.LevelSuccess}, levels(report.Findings, models.CheckContinuity))
}

func TestRunFullValidation_ContinuityWarningDoesNotFail(t *testing.T) {
	prev := sampleSnapshot()

	cur := sampleSnapshot()
	cur.Total.CashBalance = 115.48 // equity 150.10, +50.1%
	cur.Total.TotalEquity = 150.10

	svc := newTestService(&mockHistoryClient{bars: map[string][]models.PriceBar{"ABEO": flatHistory(5.77)}})
	report := svc.RunFullValidation(context.Background(), cur, prev, nil)

	assert.True(t, report.Passed)
	assert.Equal(t, []models.FindingLevel{models.LevelWarning, models.LevelSuccess}, levels(report.Findings, models.CheckContinuity))
	warnings := report.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "50.1%")
}

func TestRunFullValidation_TradeCheck(t *testing.T) {
	svc := newTestService(&mockHistoryClient{bars: map[string][]models.PriceBar{"ABEO": flatHistory(5.77)}})

	trade := &models.TradeCheck{
		Trade:  models.TradeRecord{Action: models.TradeBuy, Ticker: "ABEO", Shares: 10, Price: 5},
		Before: models.Balances{Cash: 100, Shares: 0},
		After:  models.Balances{Cash: 50, Shares: 10},
	}
	report := svc.RunFullValidation(context.Background(), sampleSnapshot(), nil, trade)
	assert.True(t, report.Passed)
	assert.Equal(t, []models.FindingLevel{models.LevelSuccess}, levels(report.Findings, models.CheckTrade))
	assert.Equal(t, models.CheckTrade, report.Findings[len(report.Findings)-1].Check)

	trade.After.Cash = 49.99 // cash delta 50.01
	report = svc.RunFullValidation(context.Background(), sampleSnapshot(), nil, trade)
	assert.False(t, report.Passed)
	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "expected -50.00, actual -50.01")
}

func TestRunFullValidation_NilSnapshot(t *testing.T) {
	svc := newTestService(&mockHistoryClient{})
	report := svc.RunFullValidation(context.Background(), nil, nil, nil)

	assert.False(t, report.Passed)
	assert.Equal(t, "missing TOTAL row", report.Errors()[0].Message)
}

func TestRunFullValidation_ConcurrentRunsIsolated(t *testing.T) {
	svc := NewService(&mockHistoryClient{bars: map[string][]models.PriceBar{"ABEO": flatHistory(5.77)}}, DefaultConfig(), common.NewSilentLogger())

	done := make(chan *models.ValidationReport, 2)
	for range 2 {
		go func() {
			done <- svc.RunFullValidation(context.Background(), sampleSnapshot(), nil, nil)
		}()
	}
	a, b := <-done, <-done
	assert.Len(t, a.Findings, 4)
	assert.Len(t, b.Findings, 4)
	assert.NotEqual(t, a.RunID, b.RunID)
}
