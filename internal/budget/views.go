package budget

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// TotalSpent sums spentAmount over all categories.
func TotalSpent(b MonthlyBudget) decimal.Decimal {
	total := decimal.Zero
	for _, c := range b.Categories {
		total = total.Add(c.SpentAmount)
	}

	return total
}

// Remaining is the total budget minus what has been spent. Negative when over budget.
func Remaining(b MonthlyBudget) decimal.Decimal {
	return b.TotalBudget.Sub(TotalSpent(b))
}

// PercentSpent returns spent/total*100. ok is false when the total budget is zero.
func PercentSpent(b MonthlyBudget) (pct float64, ok bool) {
	if b.TotalBudget.IsZero() {
		return 0, false
	}

	return TotalSpent(b).Div(b.TotalBudget).Mul(hundred).Round(2).InexactFloat64(), true
}

// RemainingPercent returns remaining/total*100 rounded to a whole number.
// ok is false when the total budget is zero.
func RemainingPercent(b MonthlyBudget) (pct int64, ok bool) {
	if b.TotalBudget.IsZero() {
		return 0, false
	}

	return Remaining(b).Div(b.TotalBudget).Mul(hundred).Round(0).IntPart(), true
}

// OverspendingCategories returns, in category order, every category whose
// spentAmount exceeds its budgetAmount.
func OverspendingCategories(b MonthlyBudget) []Category {
	out := []Category{}

	for _, c := range b.Categories {
		if c.Overspent() {
			out = append(out, c)
		}
	}

	return out
}

// CategoryExpenses is one group of ExpensesByCategory.
type CategoryExpenses struct {
	Category Category
	Expenses []Expense
	Total    decimal.Decimal
	// Percent is Total as a share of the budget's totalBudget.
	Percent float64
}

// ExpensesByCategory groups expenses by category, in category order. Categories
// without expenses are omitted.
func ExpensesByCategory(b MonthlyBudget) []CategoryExpenses {
	groups := make(map[string]*CategoryExpenses, len(b.Categories))

	for _, e := range b.Expenses {
		g, ok := groups[e.CategoryID]
		if !ok {
			g = &CategoryExpenses{Total: decimal.Zero}
			groups[e.CategoryID] = g
		}

		g.Expenses = append(g.Expenses, e)
		g.Total = g.Total.Add(e.Amount)
	}

	out := make([]CategoryExpenses, 0, len(groups))

	for _, c := range b.Categories {
		g, ok := groups[c.ID]
		if !ok {
			continue
		}

		g.Category = c
		if !b.TotalBudget.IsZero() {
			g.Percent = g.Total.Div(b.TotalBudget).Mul(hundred).Round(2).InexactFloat64()
		}

		out = append(out, *g)
	}

	return out
}

// FilterExpenses returns the expenses whose description contains searchTerm,
// ignoring case, restricted to categoryID when it is not empty.
func FilterExpenses(b MonthlyBudget, searchTerm, categoryID string) []Expense {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(searchTerm))
	out := []Expense{}

	for _, e := range b.Expenses {
		if categoryID != "" && e.CategoryID != categoryID {
			continue
		}

		if needle != "" && !strings.Contains(fold.String(e.Description), needle) {
			continue
		}

		out = append(out, e)
	}

	return out
}

// ExpenseSummary is the count, total and average of a list of expenses.
type ExpenseSummary struct {
	Count   int
	Total   decimal.Decimal
	Average decimal.Decimal
}

func Summarize(expenses []Expense) ExpenseSummary {
	s := ExpenseSummary{Count: len(expenses), Total: decimal.Zero, Average: decimal.Zero}

	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
	}

	if s.Count > 0 {
		s.Average = s.Total.Div(decimal.NewFromInt(int64(s.Count))).Round(2)
	}

	return s
}

// CategoryShare is a category's spend and its share of the total spent.
type CategoryShare struct {
	Category Category
	Spent    decimal.Decimal
	Percent  float64
}

// CategoryBreakdown lists categories with non-zero spend, largest first.
func CategoryBreakdown(b MonthlyBudget) []CategoryShare {
	total := TotalSpent(b)
	out := []CategoryShare{}

	for _, c := range b.Categories {
		if c.SpentAmount.IsZero() {
			continue
		}

		share := CategoryShare{Category: c, Spent: c.SpentAmount}
		if !total.IsZero() {
			share.Percent = c.SpentAmount.Div(total).Mul(hundred).Round(2).InexactFloat64()
		}

		out = append(out, share)
	}

	slices.SortStableFunc(out, func(a, b CategoryShare) int {
		return b.Spent.Cmp(a.Spent)
	})

	return out
}

// TopCategory returns the category with the largest spend. ok is false when
// nothing has been spent.
func TopCategory(b MonthlyBudget) (CategoryShare, bool) {
	shares := CategoryBreakdown(b)
	if len(shares) == 0 {
		return CategoryShare{}, false
	}

	return shares[0], true
}
