package portfolio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bobmcallan/microcap/internal/models"
)

// FormatDailySummary renders a logged snapshot as a markdown holdings table
// followed by the value, cash and equity summary.
func FormatDailySummary(snap *models.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s portfolio data\n\n", snap.Date.Format("2006-01-02"))

	b.WriteString("| Ticker | Shares | Cost Basis | Stop Loss | Current Price | Total Value | PnL | Action |\n")
	b.WriteString("|--------|--------|------------|-----------|---------------|-------------|-----|--------|\n")
	for _, r := range snap.Rows {
		stop := ""
		if r.StopLoss != nil {
			stop = fmt.Sprintf("%.2f", *r.StopLoss)
		}
		fmt.Fprintf(&b, "| %s | %s | %.2f | %s | %.2f | %.2f | %.2f | %s |\n",
			r.Ticker, strconv.FormatFloat(r.Shares, 'f', -1, 64), r.CostBasis, stop, r.CurrentPrice, r.TotalValue, r.PnL, r.Action)
	}

	b.WriteString("\n## Portfolio summary:\n")
	if t := snap.Total; t != nil {
		fmt.Fprintf(&b, "   - Total value: $%.2f\n", t.TotalValue)
		fmt.Fprintf(&b, "   - Cash balance: $%.2f\n", t.CashBalance)
		fmt.Fprintf(&b, "   - Total equity: $%.2f\n", t.TotalEquity)
	} else {
		b.WriteString("   - TOTAL row missing\n")
	}
	return b.String()
}

// FormatValidationSummary renders a saved report's verdict and its
// non-success findings for the daily prompt.
func FormatValidationSummary(report *models.ValidationReport) string {
	verdict := "PASSED"
	if !report.Passed {
		verdict = "FAILED"
	}

	var b strings.Builder
	b.WriteString("\n## Data integrity:\n")
	fmt.Fprintf(&b, "   - Validation %s (%d errors, %d warnings)\n", verdict, len(report.Errors()), len(report.Warnings()))
	for _, f := range report.Findings {
		if f.Level != models.LevelSuccess {
			fmt.Fprintf(&b, "   - [%s] %s\n", f.Level, f.Message)
		}
	}
	return b.String()
}
