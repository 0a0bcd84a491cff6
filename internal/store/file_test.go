package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const productsJSON = `{
  "products": [
    {
      "url": "https://shop.example.com/product/123",
      "selector": ".price",
      "productName": "Kettle",
      "startingPrice": 499.99,
      "remainingProductsDomSelector": ".stock",
      "colour": "red"
    },
    {
      "url": "https://shop.example.com/product/124",
      "selector": "#price",
      "productName": "Toaster",
      "startingPrice": 899
    }
  ]
}`

func TestProductFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte(productsJSON), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	f := NewProductFile(path)
	products, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].RemainingProductsDOMSelector != ".stock" {
		t.Errorf("expected stock selector, got %q", products[0].RemainingProductsDOMSelector)
	}

	products[1].StartingPrice = 799
	if err := f.Save(ctx, products); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded) != len(products) {
		t.Fatalf("expected %d products, got %d", len(products), len(reloaded))
	}
	for i := range products {
		if reloaded[i] != products[i] {
			t.Errorf("product %d: got %+v, want %+v", i, reloaded[i], products[i])
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if strings.Contains(string(data), "colour") {
		t.Error("unknown fields should be dropped on save")
	}
	if !strings.HasPrefix(string(data), "{\n  \"products\": [") {
		t.Errorf("unexpected document shape:\n%s", data)
	}
	if strings.Count(string(data), "remainingProductsDomSelector") != 1 {
		t.Error("empty stock selector should be omitted")
	}
}

func TestProductFile_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := NewProductFile(filepath.Join(dir, "missing.json")).Load(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"products": [`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewProductFile(bad).Load(ctx); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestBaselineFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "last-price.txt")
	f := NewBaselineFile(path)

	t.Run("missing file initializes to 1", func(t *testing.T) {
		got, err := f.Baseline(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != InitialBaseline {
			t.Errorf("expected %v, got %v", InitialBaseline, got)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("baseline file not created: %v", err)
		}
		if string(data) != "1" {
			t.Errorf("expected file to contain 1, got %q", data)
		}

		again, err := f.Baseline(ctx, "")
		if err != nil || again != InitialBaseline {
			t.Errorf("expected 1 on second read, got %v (%v)", again, err)
		}
	})

	t.Run("update", func(t *testing.T) {
		if err := f.SetBaseline(ctx, "", 1199.5); err != nil {
			t.Fatalf("SetBaseline failed: %v", err)
		}
		got, err := f.Baseline(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 1199.5 {
			t.Errorf("expected 1199.5, got %v", got)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if err := os.WriteFile(path, []byte("cheap"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := f.Baseline(ctx, ""); !errors.Is(err, ErrInvalidBaseline) {
			t.Errorf("expected ErrInvalidBaseline, got %v", err)
		}
	})
}
