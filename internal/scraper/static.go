package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Static reads server-rendered pages over plain HTTP. It does not run scripts,
// so it only fits shops whose price is in the initial HTML.
type Static struct {
	timeout   time.Duration
	userAgent string
	log       *zap.Logger
}

func NewStatic(timeout time.Duration, log *zap.Logger) *Static {
	return &Static{
		timeout:   timeout,
		userAgent: defaultUserAgent,
		log:       log,
	}
}

func (s *Static) Fetch(ctx context.Context, pageURL, priceSelector, stockSelector string) (Snapshot, error) {
	var snap Snapshot

	doc, err := s.get(ctx, pageURL)
	if err != nil {
		return snap, err
	}

	text, ok := selectText(doc, priceSelector)
	if !ok {
		return snap, fmt.Errorf("price selector %s: %w", priceSelector, ErrSelectorNotFound)
	}
	snap.PriceText = text
	s.log.Debug("price text", zap.String("url", pageURL), zap.String("text", text))

	if stockSelector != "" {
		snap.StockText, snap.HasStock = selectText(doc, stockSelector)
	}
	return snap, nil
}

func (s *Static) Links(ctx context.Context, pageURL, selector string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	doc, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if doc.Find(selector).Length() == 0 {
		return nil, fmt.Errorf("link selector %s: %w", selector, ErrSelectorNotFound)
	}
	return selectLinks(doc, base, selector), nil
}

func (s *Static) get(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parent context canceled: %w", err)
	}

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
	)
	c.WithTransport(contextTransport{ctx: ctx, base: http.DefaultTransport})
	c.SetRequestTimeout(s.timeout)

	var body []byte
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		s.log.Debug("visiting", zap.String("url", r.URL.String()))
	})
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(pageURL); err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("navigation failed: %w after %v", ErrTimeout, s.timeout)
		}
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	// An aborted request makes Visit return nil.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("navigation canceled: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page html: %w", err)
	}
	return doc, nil
}

// contextTransport binds every request of a collector to one context, so
// cancelling the run also cuts off a response that is still downloading.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
