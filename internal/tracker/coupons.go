package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"price-tracker/internal/config"
	"price-tracker/internal/store"

	"go.uber.org/zap"
)

// CheckCoupons reads the promotions page once and alerts for every tracked
// product whose path is among the promoted links. Scheme, host, query and
// fragment are ignored when comparing.
func (t *Tracker) CheckCoupons(ctx context.Context, promotionsURL, linkSelector string) (*Report, error) {
	if t.products == nil {
		return nil, errors.New("no product store configured")
	}
	report := newReport(config.ModeCoupons, t.now())

	products, err := t.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	links, err := t.fetcher.Links(ctx, promotionsURL, linkSelector)
	if err != nil {
		return nil, fmt.Errorf("reading promotions page: %w", err)
	}
	t.log.Info("promoted links found", zap.String("url", promotionsURL), zap.Int("count", len(links)))

	promoted := make(map[string]string, len(links))
	for _, link := range links {
		path := normalizePath(link)
		if path == "" {
			continue
		}
		if _, ok := promoted[path]; !ok {
			promoted[path] = link
		}
	}

	for _, p := range products {
		link, ok := promoted[normalizePath(p.URL)]
		if !ok {
			continue
		}
		t.log.Info("product on promotion", zap.String("product", p.Name()), zap.String("link", link))
		report.Coupons = append(report.Coupons, CouponMatch{
			Product: p,
			Link:    link,
			Sent:    t.alerts.Promoted(p, link),
		})
	}

	report.FinishedAt = t.now()
	return report, nil
}

// normalizePath reduces an absolute or relative URL to its path without a
// trailing slash, so "https://site.com/product/123?ref=x" and "/product/123" compare equal.
func normalizePath(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	path := u.Path
	if path == "" && u.Host == "" {
		path = u.Opaque
	}
	path = strings.TrimRight(path, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func skipped(p store.Product, reason string) Outcome {
	return Outcome{
		Product:  p,
		Status:   StatusSkipped,
		Previous: p.StartingPrice,
		Reason:   reason,
	}
}
