package budget

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// thousandsOnly matches European integers grouped with dots, e.g. "1.500".
var thousandsOnly = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// ParseAmount parses a user-entered amount with at most two decimals.
// Both "1234.56" and European "1.234,56" or "1.500" forms are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "€")
	clean = strings.TrimSuffix(clean, "€")
	clean = strings.TrimSpace(clean)

	switch {
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case thousandsOnly.MatchString(clean):
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	if !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("%w: %q has more than two decimals", ErrInvalidAmount, s)
	}

	return d.Round(2), nil
}

// FormatAmount renders an amount with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
