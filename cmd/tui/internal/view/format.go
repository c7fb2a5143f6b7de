package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders an amount in euros with comma decimals.
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(budget.FormatAmount(d), ".", ",", 1) + " €"
}

func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(p float64) string {
	return strings.Replace(fmt.Sprintf("%.1f%%", p), ".", ",", 1)
}

// DbCtx returns a context with a standard timeout for storage operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// bar draws a horizontal gauge of width cells filled to pct (clamped to 100).
// Overspent gauges are drawn in red.
func bar(pct float64, width int, color string) string {
	if pct < 0 {
		pct = 0
	}

	fill := color
	if pct > 100 {
		fill = "196"
		pct = 100
	}

	n := int(pct / 100 * float64(width))

	return lipgloss.NewStyle().Foreground(lipgloss.Color(fill)).Render(strings.Repeat("█", n)) +
		faintStyle.Render(strings.Repeat("░", width-n))
}

var swatches = map[string]string{
	"bg-blue-500":   "33",
	"bg-green-500":  "42",
	"bg-yellow-500": "220",
	"bg-purple-500": "135",
	"bg-red-500":    "203",
	"bg-pink-500":   "212",
	"bg-indigo-500": "62",
	"bg-orange-500": "208",
}

// termColor maps a category color class to a 256-color terminal code.
func termColor(c string) string {
	if v, ok := swatches[c]; ok {
		return v
	}

	return "63"
}
