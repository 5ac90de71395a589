package yahoo

import (
	"fmt"

	ymodels "github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/multi"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/bobmcallan/microcap/internal/models"
)

// yfinanceBackend calls Yahoo Finance through go-yfinance
type yfinanceBackend struct{}

func (yfinanceBackend) download(symbols []string, period string) (map[string][]models.PriceBar, map[string]error, error) {
	params := ymodels.DefaultDownloadParams()
	params.Symbols = symbols
	params.Period = period
	params.Interval = DefaultInterval

	result, err := multi.Download(symbols, &params)
	if err != nil {
		return nil, nil, err
	}

	data := make(map[string][]models.PriceBar, len(result.Data))
	for sym, bars := range result.Data {
		data[sym] = convertBars(bars)
	}
	errs := make(map[string]error, len(result.Errors))
	for sym, e := range result.Errors {
		errs[sym] = e
	}
	return data, errs, nil
}

func (yfinanceBackend) marketCap(symbol string) (int64, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return 0, fmt.Errorf("failed to get info: %w", err)
	}
	if info == nil {
		return 0, fmt.Errorf("empty info")
	}
	return int64(info.MarketCap), nil
}

func (yfinanceBackend) history(symbol, period string) ([]models.PriceBar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(ymodels.HistoryParams{
		Period:     period,
		Interval:   DefaultInterval,
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}
	return convertBars(bars), nil
}

func convertBars(bars []ymodels.Bar) []models.PriceBar {
	out := make([]models.PriceBar, 0, len(bars))
	for _, b := range bars {
		out = append(out, models.PriceBar{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return out
}
