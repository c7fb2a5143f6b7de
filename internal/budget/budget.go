package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is a named bucket with an allocated limit and a running spend total.
type Category struct {
	ID           string
	Name         string
	BudgetAmount decimal.Decimal
	SpentAmount  decimal.Decimal
	Color        string
}

// Remaining returns how much of the allocation is left. Negative when overspent.
func (c Category) Remaining() decimal.Decimal {
	return c.BudgetAmount.Sub(c.SpentAmount)
}

// Overspent reports whether the category spent more than its allocation.
func (c Category) Overspent() bool {
	return c.SpentAmount.GreaterThan(c.BudgetAmount)
}

// Excess returns the amount spent above the allocation, or zero.
func (c Category) Excess() decimal.Decimal {
	if !c.Overspent() {
		return decimal.Zero
	}

	return c.SpentAmount.Sub(c.BudgetAmount)
}

// ExcessPercent returns the excess as a whole percentage of the allocation.
// A category with no allocation reports zero.
func (c Category) ExcessPercent() int64 {
	if c.BudgetAmount.IsZero() {
		return 0
	}

	return c.Excess().Div(c.BudgetAmount).Mul(hundred).Round(0).IntPart()
}

// Expense is a single dated, categorized spending record.
type Expense struct {
	ID          uuid.UUID
	CategoryID  string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// MonthlyBudget holds the categories and expenses of one budget period.
type MonthlyBudget struct {
	ID          string
	Month       Month
	Year        int
	TotalBudget decimal.Decimal
	Categories  []Category
	Expenses    []Expense
}

// Period returns the (month, year) key of the budget.
func (b *MonthlyBudget) Period() Period {
	return Period{Month: b.Month, Year: b.Year}
}

// Category returns the category with the given id.
func (b *MonthlyBudget) Category(id string) (Category, bool) {
	i := b.categoryIndex(id)
	if i < 0 {
		return Category{}, false
	}

	return b.Categories[i], true
}

// Expense returns the expense with the given id.
func (b *MonthlyBudget) Expense(id uuid.UUID) (Expense, bool) {
	i := b.expenseIndex(id)
	if i < 0 {
		return Expense{}, false
	}

	return b.Expenses[i], true
}

func (b *MonthlyBudget) categoryIndex(id string) int {
	for i := range b.Categories {
		if b.Categories[i].ID == id {
			return i
		}
	}

	return -1
}

func (b *MonthlyBudget) expenseIndex(id uuid.UUID) int {
	for i := range b.Expenses {
		if b.Expenses[i].ID == id {
			return i
		}
	}

	return -1
}

// Clone returns a deep copy so callers never share slices with the store.
func (b *MonthlyBudget) Clone() MonthlyBudget {
	out := *b
	out.Categories = append([]Category(nil), b.Categories...)
	out.Expenses = append([]Expense(nil), b.Expenses...)

	return out
}
