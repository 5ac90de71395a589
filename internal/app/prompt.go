package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bobmcallan/microcap/internal/models"
	"github.com/bobmcallan/microcap/internal/services/portfolio"
)

// Prompt modes
const (
	PromptInitial  = "initial"
	PromptDaily    = "daily"
	PromptHoldings = "holdings"
)

// Prompt renders prompt data for mode and saves it under the data directory.
// initial summarises the market indices only, holdings adds the ledger's
// positions marked to current quotes, and daily summarises the latest logged
// snapshot with its saved validation verdict.
func (a *App) Prompt(ctx context.Context, mode string) (text, path string, err error) {
	switch mode {
	case PromptInitial:
		text = a.QuoteService.FormatForPrompt(ctx, nil, a.now())
	case PromptHoldings:
		holdings, err := a.currentHoldings()
		if err != nil {
			return "", "", err
		}
		text = a.QuoteService.FormatForPrompt(ctx, holdings, a.now())
	case PromptDaily:
		latest, err := a.PerformanceLog.Latest()
		if err != nil {
			return "", "", err
		}
		text = portfolio.FormatDailySummary(latest)
		report, err := a.Files.LoadReport(latest.Date)
		switch {
		case err == nil:
			text += portfolio.FormatValidationSummary(report)
		case errors.Is(err, os.ErrNotExist):
			a.Logger.Debug().Str("date", latest.Date.Format("2006-01-02")).Msg("No validation report for latest snapshot")
		default:
			return "", "", err
		}
	default:
		return "", "", fmt.Errorf("unknown prompt mode %q (want %s, %s or %s)", mode, PromptInitial, PromptDaily, PromptHoldings)
	}

	path, err = a.Files.SavePrompt(fmt.Sprintf("%s_prompt_data_%s.txt", mode, a.today().Format("20060102")), text)
	if err != nil {
		return "", "", err
	}
	return text, path, nil
}

// currentHoldings returns the ledger's open positions; a missing ledger has none
func (a *App) currentHoldings() ([]models.Holding, error) {
	book, err := a.loadBook()
	if errors.Is(err, os.ErrNotExist) {
		a.Logger.Warn().Str("path", a.Ledger.Path()).Msg("Ledger not found, no holdings")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return book.Holdings(), nil
}
