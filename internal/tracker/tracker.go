// Package tracker runs one pass of price, stock and promotion checks.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"price-tracker/internal/config"
	"price-tracker/internal/price"
	"price-tracker/internal/scraper"
	"price-tracker/internal/store"

	"go.uber.org/zap"
)

// Fetcher reads product pages. Implemented by scraper.Scraper and scraper.Static.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL, priceSelector, stockSelector string) (scraper.Snapshot, error)
	Links(ctx context.Context, pageURL, selector string) ([]string, error)
}

// Alerter sends notifications. Implemented by notify.Notifier.
type Alerter interface {
	PriceDrop(p store.Product, current float64) bool
	LowStock(p store.Product, current float64, remaining int) bool
	Promoted(p store.Product, link string) bool
}

type Tracker struct {
	fetcher           Fetcher
	products          store.ProductStore
	baselines         store.BaselineStore
	alerts            Alerter
	lowStockThreshold int
	log               *zap.Logger
	now               func() time.Time
}

// New builds a Tracker. products is needed by RunOnce and CheckCoupons,
// baselines by RunSingle; either may be nil when its mode is unused.
func New(fetcher Fetcher, products store.ProductStore, baselines store.BaselineStore,
	alerts Alerter, cfg *config.Config, log *zap.Logger) *Tracker {
	return &Tracker{
		fetcher:           fetcher,
		products:          products,
		baselines:         baselines,
		alerts:            alerts,
		lowStockThreshold: cfg.LowStockThreshold,
		log:               log,
		now:               time.Now,
	}
}

// RunOnce checks every tracked product in order and persists the list once at
// the end. A product that cannot be read is skipped with its baseline intact.
func (t *Tracker) RunOnce(ctx context.Context) (*Report, error) {
	if t.products == nil {
		return nil, errors.New("no product store configured")
	}
	report := newReport(config.ModeRun, t.now())

	products, err := t.products.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}
	t.log.Info("tracking products", zap.String("run_id", report.RunID), zap.Int("count", len(products)))

	for i := range products {
		if err := ctx.Err(); err != nil {
			report.Outcomes = append(report.Outcomes, skipped(products[i], "run canceled: "+err.Error()))
			continue
		}

		outcome := t.checkProduct(ctx, products[i])
		if outcome.Status == StatusDropped {
			products[i].StartingPrice = outcome.Current
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	// The run context may be spent by now; the write must still happen.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := t.products.Save(saveCtx, products); err != nil {
		report.FinishedAt = t.now()
		return report, fmt.Errorf("saving products: %w", err)
	}
	t.log.Info("products saved", zap.Int("count", len(products)))

	report.FinishedAt = t.now()
	return report, nil
}

func (t *Tracker) checkProduct(ctx context.Context, p store.Product) Outcome {
	log := t.log.With(zap.String("product", p.Name()), zap.String("url", p.URL))
	log.Info("tracking price")

	snap, err := t.fetcher.Fetch(ctx, p.URL, p.Selector, p.RemainingProductsDOMSelector)
	if err != nil {
		log.Error("fetching price failed", zap.Error(err))
		return skipped(p, err.Error())
	}

	current, parseErr := price.Parse(snap.PriceText)
	if parseErr != nil {
		log.Error("parsing price failed", zap.String("text", snap.PriceText), zap.Error(parseErr))
	} else {
		log.Info("current price", zap.Float64("price", current), zap.Float64("baseline", p.StartingPrice))
	}

	outcome := Outcome{
		Product:  p,
		Status:   StatusUnchanged,
		Previous: p.StartingPrice,
		Current:  current,
	}

	// Stock is checked whether or not the price could be read.
	if remaining, ok := t.remaining(log, p, snap); ok {
		outcome.Remaining = &remaining
		if remaining <= t.lowStockThreshold {
			log.Warn("low stock", zap.Int("remaining", remaining))
			outcome.Alerts = append(outcome.Alerts, Alert{
				Kind: AlertLowStock,
				Sent: t.alerts.LowStock(p, current, remaining),
			})
		}
	}

	if parseErr != nil {
		outcome.Status = StatusSkipped
		outcome.Reason = parseErr.Error()
		return outcome
	}

	if current < p.StartingPrice {
		log.Info("price decrease", zap.Float64("saved", p.StartingPrice-current))
		outcome.Status = StatusDropped
		outcome.Alerts = append(outcome.Alerts, Alert{
			Kind: AlertPriceDrop,
			Sent: t.alerts.PriceDrop(p, current),
		})
	} else {
		log.Info("price increased or remained the same")
	}
	return outcome
}

// remaining reads the stock count. Missing or unmatched text means no count,
// never a zero count.
func (t *Tracker) remaining(log *zap.Logger, p store.Product, snap scraper.Snapshot) (int, bool) {
	if p.RemainingProductsDOMSelector == "" {
		return 0, false
	}
	if !snap.HasStock {
		log.Debug("stock element not on page")
		return 0, false
	}

	n, err := price.Remaining(snap.StockText)
	if err != nil {
		log.Debug("no stock count", zap.String("text", snap.StockText))
		return 0, false
	}
	log.Info("items remaining", zap.Int("remaining", n))
	return n, true
}

// RunSingle checks one page against the baseline store, updating the baseline only on a drop.
func (t *Tracker) RunSingle(ctx context.Context, pageURL, selector string) (*Report, error) {
	if t.baselines == nil {
		return nil, errors.New("no baseline store configured")
	}
	report := newReport(config.ModeSingle, t.now())

	baseline, err := t.baselines.Baseline(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("reading baseline: %w", err)
	}

	p := store.Product{URL: pageURL, Selector: selector, StartingPrice: baseline}
	outcome := t.checkProduct(ctx, p)
	report.Outcomes = append(report.Outcomes, outcome)

	if outcome.Status == StatusDropped {
		if err := t.baselines.SetBaseline(ctx, pageURL, outcome.Current); err != nil {
			report.FinishedAt = t.now()
			return report, fmt.Errorf("updating baseline: %w", err)
		}
	}

	report.FinishedAt = t.now()
	return report, nil
}
