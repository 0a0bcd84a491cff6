package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// openTestSQL connects to the database named by TEST_MYSQL_DSN, for example
// "root:secret@tcp(127.0.0.1:3306)/price_tracker_test?parseTime=true".
func openTestSQL(t *testing.T) *SQLStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MySQL test in short mode")
	}
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}

	s, err := OpenSQL(dsn)
	if err != nil {
		t.Skipf("MySQL unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// testURL returns a URL unique to this test run, removed again on cleanup.
func testURL(t *testing.T, s *SQLStore, path string) string {
	t.Helper()
	u := "https://shop.example.com/" + uuid.NewString() + path
	t.Cleanup(func() {
		s.db.Where("url = ?", u).Delete(&trackedProduct{})
	})
	return u
}

func TestSQLStore_Baseline(t *testing.T) {
	s := openTestSQL(t)
	ctx := context.Background()
	u := testURL(t, s, "/product/123")

	got, err := s.Baseline(ctx, u)
	if err != nil {
		t.Fatalf("Baseline failed: %v", err)
	}
	if got != InitialBaseline {
		t.Errorf("expected initial baseline %v, got %v", InitialBaseline, got)
	}

	var count int64
	s.db.Model(&trackedProduct{}).Where("url = ?", u).Count(&count)
	if count != 1 {
		t.Errorf("expected the unknown url to be inserted once, found %d rows", count)
	}

	if err := s.SetBaseline(ctx, u, 1199.5); err != nil {
		t.Fatalf("SetBaseline failed: %v", err)
	}
	if got, _ := s.Baseline(ctx, u); got != 1199.5 {
		t.Errorf("expected 1199.5, got %v", got)
	}
}

func TestSQLStore_SaveUpsertsByURL(t *testing.T) {
	s := openTestSQL(t)
	ctx := context.Background()
	first := testURL(t, s, "/product/1")
	second := testURL(t, s, "/product/2")

	initial := []Product{
		{URL: first, Selector: ".price", ProductName: "Kettle", StartingPrice: 500, RemainingProductsDOMSelector: ".stock"},
		{URL: second, Selector: ".price", ProductName: "Toaster", StartingPrice: 300},
	}
	if err := s.Save(ctx, initial); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	updated := []Product{
		{URL: first, Selector: ".price", ProductName: "Kettle", StartingPrice: 450},
		initial[1],
	}
	if err := s.Save(ctx, updated); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	products, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var mine []Product
	for _, p := range products {
		if p.URL == first || p.URL == second {
			mine = append(mine, p)
		}
	}
	if len(mine) != 2 {
		t.Fatalf("expected one row per url, got %+v", mine)
	}
	if mine[0] != updated[0] || mine[1] != updated[1] {
		t.Errorf("expected %+v in insertion order, got %+v", updated, mine)
	}
}
