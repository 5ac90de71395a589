// Package browser drives a headless Chrome session that reads quote pages
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/bobmcallan/microcap/internal/common"
	"github.com/bobmcallan/microcap/internal/interfaces"
)

const (
	consentSelector   = `button[class*="accept-all"]`
	chartSelector     = `div[data-testid="main-chart-container"]`
	marketCapSelector = `[data-test="MARKET_CAP-value"]`
)

// stealthScript hides the most common automation fingerprints before any page script runs
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
`

// Launcher starts browser sessions
type Launcher struct {
	config common.BrowserConfig
	logger *common.Logger
}

// NewLauncher creates a new Launcher
func NewLauncher(config common.BrowserConfig, logger *common.Logger) *Launcher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Launcher{config: config, logger: logger}
}

// Launch starts Chrome and prepares a single tab for quote page reads.
// The returned session must be closed by the caller.
func (l *Launcher) Launch(ctx context.Context) (interfaces.QuoteSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("browser launch cancelled: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(1366, 768),
	)
	if l.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.config.UserAgent))
	}

	// The browser outlives ctx until Close; pages use their own deadlines.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:            tabCtx,
		baseURL:        l.config.BaseURL,
		pageTimeout:    l.config.GetPageTimeout(),
		consentTimeout: l.config.GetConsentTimeout(),
		logger:         l.logger,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}

	start := time.Now()
	if err := chromedp.Run(tabCtx, s.stealth(l.config.UserAgent)); err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	l.logger.Info().Bool("headless", l.config.Headless).Dur("elapsed", time.Since(start)).Msg("Browser session started")
	return s, nil
}

// Session is one running browser with a single reusable tab
type Session struct {
	ctx            context.Context
	cancel         func()
	baseURL        string
	pageTimeout    time.Duration
	consentTimeout time.Duration
	logger         *common.Logger

	closeOnce sync.Once
}

func (s *Session) stealth(userAgent string) chromedp.Tasks {
	tasks := chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}
	if userAgent != "" {
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(userAgent).WithAcceptLanguage("en-US,en;q=0.9").Do(ctx)
		}))
	}
	return tasks
}

// FetchQuotePage loads the ticker's quote page and returns the raw price and market cap text
func (s *Session) FetchQuotePage(ctx context.Context, ticker string) (*interfaces.QuotePage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageCtx, cancel := context.WithTimeout(s.ctx, s.pageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	target := QuoteURL(s.baseURL, ticker)
	if err := chromedp.Run(pageCtx, chromedp.Navigate(target)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", target, err)
	}

	s.dismissConsent(pageCtx)

	result := &interfaces.QuotePage{Ticker: ticker}
	err := chromedp.Run(pageCtx,
		chromedp.WaitVisible(chartSelector, chromedp.ByQuery),
		chromedp.Text(PriceSelector(ticker), &result.PriceText, chromedp.ByQuery),
		chromedp.Evaluate(textQuery(marketCapSelector), &result.MarketCapText),
	)
	if err != nil {
		return nil, fmt.Errorf("read quote page for %s: %w", ticker, err)
	}

	result.PriceText = strings.TrimSpace(result.PriceText)
	result.MarketCapText = strings.TrimSpace(result.MarketCapText)
	return result, nil
}

// dismissConsent clicks the cookie consent button if one appears. Absence is not an error.
func (s *Session) dismissConsent(ctx context.Context) {
	consentCtx, cancel := context.WithTimeout(ctx, s.consentTimeout)
	defer cancel()

	if err := chromedp.Run(consentCtx, chromedp.Click(consentSelector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		s.logger.Trace().Str("reason", err.Error()).Msg("No consent dialog")
		return
	}
	s.logger.Debug().Msg("Consent dialog accepted")
}

// Close shuts down the tab and the browser process
func (s *Session) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

// QuoteURL returns the quote page address for a ticker
func QuoteURL(baseURL, ticker string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(ticker) + "/"
}

// PriceSelector returns the selector of the live price element for a ticker
func PriceSelector(ticker string) string {
	return fmt.Sprintf(`fin-streamer[data-symbol=%s][data-field="regularMarketPrice"]`, strconv.Quote(ticker))
}

// textQuery builds a script returning an element's trimmed text, or "" if absent
func textQuery(selector string) string {
	return fmt.Sprintf(`(function(){const e=document.querySelector(%s);return e?e.textContent.trim():"";})()`, strconv.Quote(selector))
}

var (
	_ interfaces.BrowserLauncher = (*Launcher)(nil)
	_ interfaces.QuoteSession    = (*Session)(nil)
)
