package price

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"rand with thousands separator", "R1,299.00", 1299},
		{"plain number", "499", 499},
		{"surrounding text", "  Now only R 89.95 incl. VAT ", 89.95},
		{"no decimals", "R12 000", 12000},
		{"trailing abbreviation", "R1,299.00 incl. VAT", 1299},
		{"trailing dot", "R1,299.00.", 1299},
		{"stray dots after the number", "1.2.3", 1.2},
		{"leading dot", ".5", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, text := range []string{"", "Out of stock", "R0.00", "...", ".", "Was: R"} {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			if !errors.Is(err, ErrNoPrice) {
				t.Errorf("Parse(%q) error = %v, want ErrNoPrice", text, err)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	n, err := Remaining("Hurry! Only 1 left in stock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1, got %d", n)
	}

	n, err = Remaining("Only 12 left")
	if err != nil || n != 12 {
		t.Errorf("expected 12, got %d (%v)", n, err)
	}
}

func TestRemaining_NoMatch(t *testing.T) {
	for _, text := range []string{"", "In stock", "only 2 left", "Only a few left"} {
		if _, err := Remaining(text); !errors.Is(err, ErrNoStockCount) {
			t.Errorf("Remaining(%q) error = %v, want ErrNoStockCount", text, err)
		}
	}
}
