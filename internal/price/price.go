// Package price turns scraped element text into numbers.
package price

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var (
	ErrNoPrice      = errors.New("no price in text")
	ErrNoStockCount = errors.New("no stock count in text")
)

var (
	nonNumeric   = regexp.MustCompile(`[^0-9.]`)
	leadingFloat = regexp.MustCompile(`^[0-9]*\.?[0-9]*`)
	remainingRex = regexp.MustCompile(`Only (\d+) left`)
)

// Parse strips everything except digits and dots from text and parses the
// longest leading number of the rest, so "R1,299.00" becomes 1299 and
// "R1,299.00 incl. VAT" still does. Zero is not a usable price.
func Parse(text string) (float64, error) {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	number := leadingFloat.FindString(cleaned)
	if number == "" || number == "." {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, text)
	}

	v, err := strconv.ParseFloat(number, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, text)
	}
	return v, nil
}

// Remaining extracts N from an "Only N left" phrase.
func Remaining(text string) (int, error) {
	m := remainingRex.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrNoStockCount, text)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoStockCount, text)
	}
	return n, nil
}
