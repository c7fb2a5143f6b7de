package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

// Store persists whole MonthlyBudget snapshots as JSONB rows.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type categoryRecord struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BudgetAmount decimal.Decimal `json:"budgetAmount"`
	SpentAmount  decimal.Decimal `json:"spentAmount"`
	Color        string          `json:"color"`
}

type expenseRecord struct {
	ID          uuid.UUID       `json:"id"`
	CategoryID  string          `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

type budgetRecord struct {
	TotalBudget decimal.Decimal  `json:"totalBudget"`
	Categories  []categoryRecord `json:"categories"`
	Expenses    []expenseRecord  `json:"expenses"`
}

func toRecord(b *budget.MonthlyBudget) budgetRecord {
	rec := budgetRecord{
		TotalBudget: b.TotalBudget,
		Categories:  make([]categoryRecord, 0, len(b.Categories)),
		Expenses:    make([]expenseRecord, 0, len(b.Expenses)),
	}

	for _, c := range b.Categories {
		rec.Categories = append(rec.Categories, categoryRecord(c))
	}

	for _, e := range b.Expenses {
		rec.Expenses = append(rec.Expenses, expenseRecord(e))
	}

	return rec
}

func fromRecord(p budget.Period, rec budgetRecord) *budget.MonthlyBudget {
	b := &budget.MonthlyBudget{
		ID:          p.Key(),
		Month:       p.Month,
		Year:        p.Year,
		TotalBudget: rec.TotalBudget,
		Categories:  make([]budget.Category, 0, len(rec.Categories)),
		Expenses:    make([]budget.Expense, 0, len(rec.Expenses)),
	}

	for _, c := range rec.Categories {
		b.Categories = append(b.Categories, budget.Category(c))
	}

	for _, e := range rec.Expenses {
		b.Expenses = append(b.Expenses, budget.Expense(e))
	}

	return b
}

func (s *Store) SaveBudget(ctx context.Context, b *budget.MonthlyBudget) error {
	data, err := json.Marshal(toRecord(b))
	if err != nil {
		return fmt.Errorf("encoding budget: %w", err)
	}

	query := `
		INSERT INTO budgets (id, month, year, data, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = NOW()
	`

	p := b.Period()

	if _, err := s.db.ExecContext(ctx, query, p.Key(), string(p.Month), p.Year, data); err != nil {
		return fmt.Errorf("saving budget: %w", err)
	}

	return nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]*budget.MonthlyBudget, error) {
	query := `SELECT month, year, data FROM budgets ORDER BY year, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.MonthlyBudget

	for rows.Next() {
		var (
			month string
			year  int
			data  []byte
		)

		if err := rows.Scan(&month, &year, &data); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}

		p := budget.Period{Month: budget.Month(month), Year: year}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("budget %s-%d: %w", month, year, err)
		}

		var rec budgetRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decoding budget %s: %w", p.Key(), err)
		}

		budgets = append(budgets, fromRecord(p, rec))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budgets: %w", err)
	}

	return budgets, nil
}
