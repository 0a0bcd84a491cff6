package tracker

import (
	"time"

	"price-tracker/internal/store"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDropped   Status = "dropped"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
)

type AlertKind string

const (
	AlertPriceDrop AlertKind = "price_drop"
	AlertLowStock  AlertKind = "low_stock"
	AlertPromoted  AlertKind = "promoted"
)

// Alert records one notification attempt and whether the relay accepted it.
type Alert struct {
	Kind AlertKind
	Sent bool
}

// Outcome is the result of checking one product.
type Outcome struct {
	Product   store.Product // as loaded, before the baseline moved
	Status    Status
	Previous  float64
	Current   float64 // zero when skipped
	Remaining *int    // nil when no stock count was read
	Alerts    []Alert
	Reason    string // why the product was skipped
}

// CouponMatch is a tracked product found on the promotions page.
type CouponMatch struct {
	Product store.Product
	Link    string
	Sent    bool
}

// Report collects what one invocation did.
type Report struct {
	RunID      string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
	Coupons    []CouponMatch
}

func newReport(mode string, now time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: now,
	}
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Alerts returns how many alerts of kind k were attempted.
func (r *Report) Alerts(k AlertKind) int {
	n := 0
	for _, o := range r.Outcomes {
		for _, a := range o.Alerts {
			if a.Kind == k {
				n++
			}
		}
	}
	if k == AlertPromoted {
		n += len(r.Coupons)
	}
	return n
}
