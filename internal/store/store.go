// Package store persists tracked products and their baseline prices.
package store

import (
	"context"
	"errors"
)

// InitialBaseline is the baseline recorded for a product seen for the first time.
const InitialBaseline = 1.0

var ErrInvalidBaseline = errors.New("invalid baseline")

// Product is one tracked page. StartingPrice is the baseline the next reading is compared to.
type Product struct {
	URL                          string  `json:"url"`
	Selector                     string  `json:"selector"`
	ProductName                  string  `json:"productName"`
	StartingPrice                float64 `json:"startingPrice"`
	RemainingProductsDOMSelector string  `json:"remainingProductsDomSelector,omitempty"`
}

// Name returns the product name, falling back to the URL.
func (p Product) Name() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	return p.URL
}

type ProductStore interface {
	Load(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, products []Product) error
}

type BaselineStore interface {
	Baseline(ctx context.Context, key string) (float64, error)
	SetBaseline(ctx context.Context, key string, price float64) error
}
