package budget

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewExpense holds the fields of an expense about to be recorded.
type NewExpense struct {
	CategoryID  string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// ExpensePatch lists the fields an update may replace. Nil fields are kept.
// Id and date are never changed.
type ExpensePatch struct {
	Description *string
	Amount      *decimal.Decimal
	CategoryID  *string
}

// Store owns every MonthlyBudget, keyed by period, and the active period.
// Reads return copies; each mutation validates first and then applies in full,
// so an expense is never stored without its category update.
type Store struct {
	mu      sync.Mutex
	budgets map[Period]*MonthlyBudget
	active  Period
	newID   func() uuid.UUID
}

func NewStore(active Period) *Store {
	return &Store{
		budgets: make(map[Period]*MonthlyBudget),
		active:  active,
		newID:   uuid.New,
	}
}

// Lookup returns the budget for p without creating it.
func (s *Store) Lookup(p Period) (MonthlyBudget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[p]
	if !ok {
		return MonthlyBudget{}, false
	}

	return b.Clone(), true
}

// GetOrCreate returns the budget for p, seeding the default budget on a miss.
func (s *Store) GetOrCreate(p Period) MonthlyBudget {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreate(p).Clone()
}

func (s *Store) getOrCreate(p Period) *MonthlyBudget {
	if b, ok := s.budgets[p]; ok {
		return b
	}

	b := NewDefaultBudget(p)
	s.budgets[p] = &b

	return &b
}

// seed returns the budget for p, or an unsaved default one reported as fresh.
// Callers insert a fresh budget only once their validation has passed.
func (s *Store) seed(p Period) (*MonthlyBudget, bool) {
	if b, ok := s.budgets[p]; ok {
		return b, false
	}

	b := NewDefaultBudget(p)

	return &b, true
}

// Active returns the period used by consumers that do not name one.
func (s *Store) Active() Period {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// SetActive switches the active period, creating its budget if needed.
func (s *Store) SetActive(p Period) MonthlyBudget {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = p

	return s.getOrCreate(p).Clone()
}

// Current returns the budget of the active period.
func (s *Store) Current() MonthlyBudget {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreate(s.active).Clone()
}

// SetTotalBudget overwrites the total of the period. Categories and expenses are untouched.
func (s *Store) SetTotalBudget(p Period, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: total budget %s is negative", ErrInvalidAmount, amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrCreate(p).TotalBudget = amount.Round(2)

	return nil
}

// RecordExpense appends a new expense and adds its amount to the category.
func (s *Store) RecordExpense(p Period, e NewExpense) (Expense, error) {
	if !e.Amount.IsPositive() {
		return Expense{}, fmt.Errorf("%w: expense amount must be positive, got %s", ErrInvalidAmount, e.Amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, fresh := s.seed(p)

	ci := b.categoryIndex(e.CategoryID)
	if ci < 0 {
		return Expense{}, fmt.Errorf("%w: %q in %s", ErrInvalidCategory, e.CategoryID, p)
	}

	if fresh {
		s.budgets[p] = b
	}

	exp := Expense{
		ID:          s.newID(),
		CategoryID:  e.CategoryID,
		Amount:      e.Amount.Round(2),
		Description: e.Description,
		Date:        e.Date,
	}

	b.Expenses = append(b.Expenses, exp)
	b.Categories[ci].SpentAmount = b.Categories[ci].SpentAmount.Add(exp.Amount)

	return exp, nil
}

// UpdateExpense applies the patch and moves the amount between categories so that
// every spentAmount still equals the sum of its expenses.
func (s *Store) UpdateExpense(p Period, id uuid.UUID, patch ExpensePatch) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[p]
	if !ok {
		return Expense{}, fmt.Errorf("%w: budget %s", ErrNotFound, p)
	}

	ei := b.expenseIndex(id)
	if ei < 0 {
		return Expense{}, fmt.Errorf("%w: expense %s in %s", ErrNotFound, id, p)
	}

	old := b.Expenses[ei]
	updated := old

	if patch.Description != nil {
		updated.Description = *patch.Description
	}

	if patch.Amount != nil {
		if !patch.Amount.IsPositive() {
			return Expense{}, fmt.Errorf("%w: expense amount must be positive, got %s", ErrInvalidAmount, *patch.Amount)
		}

		updated.Amount = patch.Amount.Round(2)
	}

	if patch.CategoryID != nil {
		updated.CategoryID = *patch.CategoryID
	}

	newCI := b.categoryIndex(updated.CategoryID)
	if newCI < 0 {
		return Expense{}, fmt.Errorf("%w: %q in %s", ErrInvalidCategory, updated.CategoryID, p)
	}

	if oldCI := b.categoryIndex(old.CategoryID); oldCI >= 0 {
		b.Categories[oldCI].SpentAmount = b.Categories[oldCI].SpentAmount.Sub(old.Amount)
	}

	b.Categories[newCI].SpentAmount = b.Categories[newCI].SpentAmount.Add(updated.Amount)
	b.Expenses[ei] = updated

	return updated, nil
}

// DeleteExpense removes the expense and subtracts its amount from the category.
func (s *Store) DeleteExpense(p Period, id uuid.UUID) (Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[p]
	if !ok {
		return Expense{}, fmt.Errorf("%w: budget %s", ErrNotFound, p)
	}

	ei := b.expenseIndex(id)
	if ei < 0 {
		return Expense{}, fmt.Errorf("%w: expense %s in %s", ErrNotFound, id, p)
	}

	removed := b.Expenses[ei]
	b.Expenses = slices.Delete(b.Expenses, ei, ei+1)

	if ci := b.categoryIndex(removed.CategoryID); ci >= 0 {
		b.Categories[ci].SpentAmount = b.Categories[ci].SpentAmount.Sub(removed.Amount)
	}

	return removed, nil
}

// SetCategorySpent overwrites spentAmount directly. It is an administrative
// correction: the expense ledger is not consulted and the sum invariant no
// longer holds for that category afterwards.
func (s *Store) SetCategorySpent(p Period, categoryID string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: spent amount %s is negative", ErrInvalidAmount, amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, fresh := s.seed(p)

	ci := b.categoryIndex(categoryID)
	if ci < 0 {
		return fmt.Errorf("%w: %q in %s", ErrInvalidCategory, categoryID, p)
	}

	if fresh {
		s.budgets[p] = b
	}

	b.Categories[ci].SpentAmount = amount.Round(2)

	return nil
}

// Put stores b as-is, replacing any budget of the same period.
func (s *Store) Put(b MonthlyBudget) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := b.Clone()
	c.ID = c.Period().Key()
	s.budgets[c.Period()] = &c
}

// Remove forgets the budget of p.
func (s *Store) Remove(p Period) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.budgets, p)
}

// Periods lists existing periods in chronological order.
func (s *Store) Periods() []Period {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Period, 0, len(s.budgets))
	for p := range s.budgets {
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b Period) int {
		return a.Start().Compare(b.Start())
	})

	return out
}
