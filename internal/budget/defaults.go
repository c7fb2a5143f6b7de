package budget

import "github.com/shopspring/decimal"

// DefaultTotalBudget is the total assigned to a freshly created period.
var DefaultTotalBudget = decimal.NewFromInt(2000)

// QuickExpenseDescription is used when an expense is recorded without a description.
const QuickExpenseDescription = "Gasto rápido"

// DefaultCategories returns the eight seeded categories with zero spend.
func DefaultCategories() []Category {
	return []Category{
		{ID: "vivienda", Name: "Vivienda", BudgetAmount: decimal.NewFromInt(600), Color: "bg-blue-500"},
		{ID: "alimentacion", Name: "Alimentación", BudgetAmount: decimal.NewFromInt(400), Color: "bg-green-500"},
		{ID: "transporte", Name: "Transporte", BudgetAmount: decimal.NewFromInt(200), Color: "bg-yellow-500"},
		{ID: "ocio", Name: "Ocio Y Entretenimiento", BudgetAmount: decimal.NewFromInt(300), Color: "bg-purple-500"},
		{ID: "deportes", Name: "Deportes / Salud", BudgetAmount: decimal.NewFromInt(150), Color: "bg-red-500"},
		{ID: "cuidado", Name: "Cuidado Personal", BudgetAmount: decimal.NewFromInt(100), Color: "bg-pink-500"},
		{ID: "educacion", Name: "Educación", BudgetAmount: decimal.NewFromInt(150), Color: "bg-indigo-500"},
		{ID: "personal", Name: "Personal", BudgetAmount: decimal.NewFromInt(100), Color: "bg-orange-500"},
	}
}

// NewDefaultBudget builds the seed budget for a period. Only the store calls it,
// and only after a confirmed miss.
func NewDefaultBudget(p Period) MonthlyBudget {
	return MonthlyBudget{
		ID:          p.Key(),
		Month:       p.Month,
		Year:        p.Year,
		TotalBudget: DefaultTotalBudget,
		Categories:  DefaultCategories(),
		Expenses:    []Expense{},
	}
}
