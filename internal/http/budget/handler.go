package budget

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	"github.com/MrJamesThe3rd/budgetnest/internal/http/respond"
)

type Handler struct {
	svc *budget.Service
}

func NewHandler(svc *budget.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers the budget endpoints. PeriodRoutes are mounted under
// /{year}/{month} so other handlers can share the period prefix.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/active", h.active)
	r.Put("/active", h.setActive)
}

func (h *Handler) PeriodRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/total", h.setTotal)
	r.Get("/expenses", h.listExpenses)
	r.Post("/expenses", h.recordExpense)
	r.Get("/expenses/by-category", h.byCategory)
	r.Patch("/expenses/{id}", h.updateExpense)
	r.Delete("/expenses/{id}", h.deleteExpense)
	r.Put("/categories/{id}/spent", h.setCategorySpent)
	r.Get("/statistics", h.statistics)
	r.Get("/trend", h.trend)
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.ActiveBudget(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toBudgetResponse(b))
}

type setActiveRequest struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	month, err := budget.ParseMonth(req.Month)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if req.Year < 1 {
		http.Error(w, "year is required", http.StatusBadRequest)
		return
	}

	b, err := h.svc.SetActiveMonth(r.Context(), budget.Period{Month: month, Year: req.Year})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toBudgetResponse(b))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	b, err := h.svc.GetOrCreateBudget(r.Context(), p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toBudgetResponse(b))
}

type amountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func decodeAmount(r *http.Request) (decimal.Decimal, error) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", budget.ErrValidation, err)
	}

	if req.Amount == nil {
		return decimal.Zero, fmt.Errorf("%w: amount is required", budget.ErrValidation)
	}

	return *req.Amount, nil
}

func (h *Handler) setTotal(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	amount, err := decodeAmount(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.SetTotalBudget(r.Context(), p, amount); err != nil {
		respond.Error(w, r, err)
		return
	}

	b, _ := h.svc.Lookup(p)
	respond.JSON(w, http.StatusOK, toBudgetResponse(b))
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	b, err := h.svc.GetOrCreateBudget(r.Context(), p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	q := r.URL.Query()
	expenses := budget.FilterExpenses(b, q.Get("search"), q.Get("category"))
	sum := budget.Summarize(expenses)

	respond.JSON(w, http.StatusOK, expenseListResponse{
		Expenses: toExpenseResponses(expenses),
		Count:    sum.Count,
		Total:    sum.Total,
		Average:  sum.Average,
	})
}

type recordExpenseRequest struct {
	CategoryID  string           `json:"categoryId"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	Date        *time.Time       `json:"date,omitempty"`
}

func (h *Handler) recordExpense(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req recordExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Amount == nil {
		http.Error(w, "amount is required", http.StatusBadRequest)
		return
	}

	params := budget.RecordParams{
		CategoryID:  req.CategoryID,
		Amount:      *req.Amount,
		Description: req.Description,
	}

	if req.Date != nil {
		params.Date = *req.Date
	}

	exp, err := h.svc.RecordExpense(r.Context(), p, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toExpenseResponse(exp))
}

type updateExpenseRequest struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exp, err := h.svc.UpdateExpense(r.Context(), p, id, budget.ExpensePatch(req))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toExpenseResponse(exp))
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.DeleteExpense(r.Context(), p, id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setCategorySpent(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	amount, err := decodeAmount(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.SetCategorySpent(r.Context(), p, chi.URLParam(r, "id"), amount); err != nil {
		respond.Error(w, r, err)
		return
	}

	b, _ := h.svc.Lookup(p)
	respond.JSON(w, http.StatusOK, toBudgetResponse(b))
}

func (h *Handler) byCategory(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	b, err := h.svc.GetOrCreateBudget(r.Context(), p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	groups := budget.ExpensesByCategory(b)
	resp := make([]categoryGroupResponse, len(groups))

	for i, g := range groups {
		resp[i] = categoryGroupResponse{
			Category: toCategoryResponse(g.Category),
			Expenses: toExpenseResponses(g.Expenses),
			Total:    g.Total,
			Percent:  g.Percent,
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	stats, err := h.svc.Statistics(r.Context(), p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toStatisticsResponse(stats))
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	p, err := respond.Period(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	months := 6

	if s := r.URL.Query().Get("months"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 24 {
			http.Error(w, "months must be between 1 and 24", http.StatusBadRequest)
			return
		}

		months = n
	}

	points, err := h.svc.Trend(r.Context(), p, months)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]trendPointResponse, len(points))
	for i, pt := range points {
		resp[i] = trendPointResponse{
			Month:       pt.Period.Month,
			Year:        pt.Period.Year,
			Spent:       pt.Spent,
			TotalBudget: pt.TotalBudget,
			Exists:      pt.Exists,
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}
