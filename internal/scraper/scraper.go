package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

var (
	ErrTimeout          = errors.New("timed out")
	ErrSelectorNotFound = errors.New("selector not found")
)

// Snapshot is the raw text read from one product page.
type Snapshot struct {
	PriceText string
	StockText string
	HasStock  bool // stock element was present on the page
}

// Scraper reads pages through a shared headless browser, one tab per call.
type Scraper struct {
	browserCtx context.Context
	timeout    time.Duration
	log        *zap.Logger
}

// New wraps a browser context created by browser.NewChrome.
func New(browserCtx context.Context, timeout time.Duration, log *zap.Logger) *Scraper {
	return &Scraper{
		browserCtx: browserCtx,
		timeout:    timeout,
		log:        log,
	}
}

// Fetch navigates to pageURL, waits for priceSelector and reads its text. When
// stockSelector is set, its text is read without waiting.
func (s *Scraper) Fetch(ctx context.Context, pageURL, priceSelector, stockSelector string) (Snapshot, error) {
	var snap Snapshot
	err := s.withTab(ctx, func(tabCtx context.Context) error {
		if err := s.navigate(tabCtx, pageURL); err != nil {
			return err
		}

		if err := s.runWithTimeout(tabCtx, "price selector "+priceSelector,
			chromedp.WaitVisible(priceSelector, chromedp.ByQuery),
			chromedp.Text(priceSelector, &snap.PriceText, chromedp.ByQuery),
		); err != nil {
			return err
		}
		snap.PriceText = strings.TrimSpace(snap.PriceText)
		s.log.Debug("price text", zap.String("url", pageURL), zap.String("text", snap.PriceText))

		if stockSelector == "" {
			return nil
		}
		stock, err := s.queryText(tabCtx, stockSelector)
		if err != nil {
			// Price is already read; a broken stock probe only loses the stock check.
			s.log.Warn("reading stock text failed", zap.String("url", pageURL), zap.Error(err))
			return nil
		}
		snap.StockText, snap.HasStock = strings.TrimSpace(stock.Text), stock.Found
		return nil
	})
	return snap, err
}

// Links navigates to pageURL, waits for selector and returns the matching link targets.
func (s *Scraper) Links(ctx context.Context, pageURL, selector string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	var links []string
	err = s.withTab(ctx, func(tabCtx context.Context) error {
		if err := s.navigate(tabCtx, pageURL); err != nil {
			return err
		}

		var html string
		if err := s.runWithTimeout(tabCtx, "link selector "+selector,
			chromedp.WaitReady(selector, chromedp.ByQuery),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		); err != nil {
			return err
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return fmt.Errorf("parsing page html: %w", err)
		}
		links = selectLinks(doc, base, selector)
		return nil
	})
	return links, err
}

// withTab opens a new tab on the shared browser and closes it when fn returns,
// whatever the outcome. Cancelling ctx closes the tab early.
func (s *Scraper) withTab(ctx context.Context, fn func(tabCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("parent context canceled: %w", err)
	}

	tabCtx, closeTab := chromedp.NewContext(s.browserCtx)
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	return fn(tabCtx)
}

// navigate starts loading pageURL and returns once the navigation is committed.
// chromedp.Navigate would also wait for the load event, which slow third-party
// assets can hold back for the whole timeout; the selector wait that follows
// covers readiness instead.
func (s *Scraper) navigate(tabCtx context.Context, pageURL string) error {
	s.log.Debug("navigating", zap.String("url", pageURL))
	err := s.runWithTimeout(tabCtx, "navigation", chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, err := page.Navigate(pageURL).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("page load error %s", errorText)
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// runWithTimeout runs actions under the per-page timeout.
func (s *Scraper) runWithTimeout(tabCtx context.Context, step string, actions ...chromedp.Action) error {
	timeoutCtx, cancel := context.WithTimeout(tabCtx, s.timeout)
	defer cancel()

	err := chromedp.Run(timeoutCtx, actions...)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w after %v", step, ErrTimeout, s.timeout)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: context canceled during execution: %w", step, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}

type elementText struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

func (s *Scraper) queryText(tabCtx context.Context, selector string) (elementText, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return elementText{}, err
	}
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return el ? {found: true, text: el.textContent} : {found: false, text: ""};
	})()`, quoted)

	var res elementText
	err = s.runWithTimeout(tabCtx, "stock selector "+selector, chromedp.Evaluate(script, &res))
	return res, err
}
