package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

type categoryResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BudgetAmount decimal.Decimal `json:"budgetAmount"`
	SpentAmount  decimal.Decimal `json:"spentAmount"`
	Remaining    decimal.Decimal `json:"remaining"`
	Overspent    bool            `json:"overspent"`
	Color        string          `json:"color"`
}

type expenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  string          `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

type budgetResponse struct {
	ID           string             `json:"id"`
	Month        budget.Month       `json:"month"`
	Year         int                `json:"year"`
	TotalBudget  decimal.Decimal    `json:"totalBudget"`
	TotalSpent   decimal.Decimal    `json:"totalSpent"`
	Remaining    decimal.Decimal    `json:"remaining"`
	PercentSpent *float64           `json:"percentSpent"`
	Categories   []categoryResponse `json:"categories"`
	Expenses     []expenseResponse  `json:"expenses"`
}

type expenseListResponse struct {
	Expenses []expenseResponse `json:"expenses"`
	Count    int               `json:"count"`
	Total    decimal.Decimal   `json:"total"`
	Average  decimal.Decimal   `json:"average"`
}

type categoryGroupResponse struct {
	Category categoryResponse  `json:"category"`
	Expenses []expenseResponse `json:"expenses"`
	Total    decimal.Decimal   `json:"total"`
	Percent  float64           `json:"percent"`
}

type shareResponse struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Spent      decimal.Decimal `json:"spent"`
	Percent    float64         `json:"percent"`
}

type statisticsResponse struct {
	Month            budget.Month       `json:"month"`
	Year             int                `json:"year"`
	TotalBudget      decimal.Decimal    `json:"totalBudget"`
	TotalSpent       decimal.Decimal    `json:"totalSpent"`
	Remaining        decimal.Decimal    `json:"remaining"`
	PercentSpent     float64            `json:"percentSpent"`
	RemainingPercent int64              `json:"remainingPercent"`
	ChangePercent    *float64           `json:"changePercent"`
	DailyAverage     decimal.Decimal    `json:"dailyAverage"`
	Overspending     []categoryResponse `json:"overspending"`
	TotalCategories  int                `json:"totalCategories"`
	TopCategory      *shareResponse     `json:"topCategory"`
	Breakdown        []shareResponse    `json:"breakdown"`
}

type trendPointResponse struct {
	Month       budget.Month    `json:"month"`
	Year        int             `json:"year"`
	Spent       decimal.Decimal `json:"spent"`
	TotalBudget decimal.Decimal `json:"totalBudget"`
	Exists      bool            `json:"exists"`
}

func toCategoryResponse(c budget.Category) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		BudgetAmount: c.BudgetAmount,
		SpentAmount:  c.SpentAmount,
		Remaining:    c.Remaining(),
		Overspent:    c.Overspent(),
		Color:        c.Color,
	}
}

func toCategoryResponses(cs []budget.Category) []categoryResponse {
	resp := make([]categoryResponse, len(cs))
	for i, c := range cs {
		resp[i] = toCategoryResponse(c)
	}

	return resp
}

func toExpenseResponse(e budget.Expense) expenseResponse {
	return expenseResponse(e)
}

func toExpenseResponses(es []budget.Expense) []expenseResponse {
	resp := make([]expenseResponse, len(es))
	for i, e := range es {
		resp[i] = toExpenseResponse(e)
	}

	return resp
}

func toBudgetResponse(b budget.MonthlyBudget) budgetResponse {
	resp := budgetResponse{
		ID:          b.ID,
		Month:       b.Month,
		Year:        b.Year,
		TotalBudget: b.TotalBudget,
		TotalSpent:  budget.TotalSpent(b),
		Remaining:   budget.Remaining(b),
		Categories:  toCategoryResponses(b.Categories),
		Expenses:    toExpenseResponses(b.Expenses),
	}

	if pct, ok := budget.PercentSpent(b); ok {
		resp.PercentSpent = &pct
	}

	return resp
}

func toShareResponse(s budget.CategoryShare) shareResponse {
	return shareResponse{
		CategoryID: s.Category.ID,
		Name:       s.Category.Name,
		Color:      s.Category.Color,
		Spent:      s.Spent,
		Percent:    s.Percent,
	}
}

func toStatisticsResponse(s budget.Statistics) statisticsResponse {
	resp := statisticsResponse{
		Month:            s.Period.Month,
		Year:             s.Period.Year,
		TotalBudget:      s.TotalBudget,
		TotalSpent:       s.TotalSpent,
		Remaining:        s.Remaining,
		PercentSpent:     s.PercentSpent,
		RemainingPercent: s.RemainingPercent,
		DailyAverage:     s.DailyAverage,
		Overspending:     toCategoryResponses(s.Overspending),
		TotalCategories:  s.TotalCategories,
		Breakdown:        make([]shareResponse, len(s.Breakdown)),
	}

	if s.HasChange {
		resp.ChangePercent = new(s.ChangePercent)
	}

	if s.TopCategory != nil {
		resp.TopCategory = new(toShareResponse(*s.TopCategory))
	}

	for i, share := range s.Breakdown {
		resp.Breakdown[i] = toShareResponse(share)
	}

	return resp
}
