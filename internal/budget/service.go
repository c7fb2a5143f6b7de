package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budget
type Repository interface {
	SaveBudget(ctx context.Context, b *MonthlyBudget) error
	ListBudgets(ctx context.Context) ([]*MonthlyBudget, error)
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Service is the entry point for every consumer. It validates input, applies
// the change to the Store and persists a snapshot of the touched budget. When
// the snapshot cannot be saved the Store is rolled back.
type Service struct {
	mu        sync.Mutex
	store     *Store
	repo      Repository
	publisher Publisher
	validate  *validator.Validate
	now       func() time.Time
}

type Option func(*Service)

// WithRepository enables snapshot-on-write persistence.
func WithRepository(repo Repository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithPublisher sends change events after each successful mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store *Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load fills the store with every persisted budget.
func (s *Service) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("listing budgets: %w", err)
	}

	for _, b := range budgets {
		s.store.Put(*b)
	}

	return nil
}

func (s *Service) Active() Period {
	return s.store.Active()
}

// Lookup returns a budget without creating it.
func (s *Service) Lookup(p Period) (MonthlyBudget, bool) {
	return s.store.Lookup(p)
}

// GetOrCreateBudget returns the budget of p, creating and persisting the default one on a miss.
func (s *Service) GetOrCreateBudget(ctx context.Context, p Period) (MonthlyBudget, error) {
	if err := p.Validate(); err != nil {
		return MonthlyBudget{}, err
	}

	if b, ok := s.store.Lookup(p); ok {
		return b, nil
	}

	err := s.mutate(ctx, p, func() error {
		s.store.GetOrCreate(p)
		return nil
	})
	if err != nil {
		return MonthlyBudget{}, err
	}

	b, _ := s.store.Lookup(p)

	return b, nil
}

// ActiveBudget returns the budget of the active period.
func (s *Service) ActiveBudget(ctx context.Context) (MonthlyBudget, error) {
	return s.GetOrCreateBudget(ctx, s.store.Active())
}

// SetActiveMonth switches the active period and returns its budget.
func (s *Service) SetActiveMonth(ctx context.Context, p Period) (MonthlyBudget, error) {
	b, err := s.GetOrCreateBudget(ctx, p)
	if err != nil {
		return MonthlyBudget{}, err
	}

	s.store.SetActive(p)

	return b, nil
}

// SetTotalBudget replaces the total of the period. Amounts must be positive.
func (s *Service) SetTotalBudget(ctx context.Context, p Period, amount decimal.Decimal) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if !amount.IsPositive() {
		return fmt.Errorf("%w: total budget must be greater than zero", ErrValidation)
	}

	err := s.mutate(ctx, p, func() error {
		return s.store.SetTotalBudget(p, amount)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, Event{Type: EventBudgetUpdated, Period: p, Amount: amount.Round(2)})

	return nil
}

type RecordParams struct {
	CategoryID  string `validate:"required"`
	Amount      decimal.Decimal
	Description string `validate:"min=3,max=100"`
	Date        time.Time
}

// RecordExpense records an expense against a category of the period.
func (s *Service) RecordExpense(ctx context.Context, p Period, params RecordParams) (Expense, error) {
	if err := p.Validate(); err != nil {
		return Expense{}, err
	}

	params = s.normalize(params)
	if err := s.check(params); err != nil {
		return Expense{}, err
	}

	var exp Expense

	err := s.mutate(ctx, p, func() error {
		var err error
		exp, err = s.store.RecordExpense(p, NewExpense(params))

		return err
	})
	if err != nil {
		return Expense{}, err
	}

	s.publish(ctx, Event{Type: EventExpenseRecorded, Period: p, ExpenseID: exp.ID, CategoryID: exp.CategoryID, Amount: exp.Amount})

	return exp, nil
}

// ImportExpenses records every expense or none of them.
func (s *Service) ImportExpenses(ctx context.Context, p Period, batch []RecordParams) ([]Expense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	normalized := make([]RecordParams, len(batch))

	for i, params := range batch {
		normalized[i] = s.normalize(params)
		if err := s.check(normalized[i]); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i+1, err)
		}
	}

	created := make([]Expense, 0, len(batch))

	err := s.mutate(ctx, p, func() error {
		for i, params := range normalized {
			exp, err := s.store.RecordExpense(p, NewExpense(params))
			if err != nil {
				return fmt.Errorf("expense %d: %w", i+1, err)
			}

			created = append(created, exp)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	events := make([]Event, len(created))
	for i, exp := range created {
		events[i] = Event{Type: EventExpenseRecorded, Period: p, ExpenseID: exp.ID, CategoryID: exp.CategoryID, Amount: exp.Amount}
	}

	s.publish(ctx, events...)

	return created, nil
}

// UpdateExpense edits description, amount and category of an expense.
func (s *Service) UpdateExpense(ctx context.Context, p Period, id uuid.UUID, patch ExpensePatch) (Expense, error) {
	if err := p.Validate(); err != nil {
		return Expense{}, err
	}

	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if err := s.validate.Var(desc, "min=3,max=100"); err != nil {
			return Expense{}, fmt.Errorf("%w: description must be between 3 and 100 characters", ErrValidation)
		}

		patch.Description = &desc
	}

	var exp Expense

	err := s.mutate(ctx, p, func() error {
		var err error
		exp, err = s.store.UpdateExpense(p, id, patch)

		return err
	})
	if err != nil {
		return Expense{}, err
	}

	s.publish(ctx, Event{Type: EventExpenseUpdated, Period: p, ExpenseID: exp.ID, CategoryID: exp.CategoryID, Amount: exp.Amount})

	return exp, nil
}

// DeleteExpense removes an expense and gives its amount back to the category.
func (s *Service) DeleteExpense(ctx context.Context, p Period, id uuid.UUID) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var removed Expense

	err := s.mutate(ctx, p, func() error {
		var err error
		removed, err = s.store.DeleteExpense(p, id)

		return err
	})
	if err != nil {
		return err
	}

	s.publish(ctx, Event{Type: EventExpenseDeleted, Period: p, ExpenseID: removed.ID, CategoryID: removed.CategoryID, Amount: removed.Amount})

	return nil
}

// SetCategorySpent is the administrative override of a category's spent amount.
// It bypasses the expense ledger.
func (s *Service) SetCategorySpent(ctx context.Context, p Period, categoryID string, amount decimal.Decimal) error {
	if err := p.Validate(); err != nil {
		return err
	}

	err := s.mutate(ctx, p, func() error {
		return s.store.SetCategorySpent(p, categoryID, amount)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "category spent overridden", "period", p.Key(), "category", categoryID, "amount", amount.StringFixed(2))
	s.publish(ctx, Event{Type: EventCategorySpentOverridden, Period: p, CategoryID: categoryID, Amount: amount.Round(2)})

	return nil
}

func (s *Service) normalize(params RecordParams) RecordParams {
	params.Description = strings.TrimSpace(params.Description)
	if params.Description == "" {
		params.Description = QuickExpenseDescription
	}

	if params.Date.IsZero() {
		params.Date = s.now()
	}

	return params
}

func (s *Service) check(params RecordParams) error {
	if err := s.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrValidation, describe(verrs[0]))
		}

		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if !params.Amount.IsPositive() {
		return fmt.Errorf("%w: expense amount must be positive, got %s", ErrInvalidAmount, params.Amount)
	}

	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Field() {
	case "Description":
		return "description must be between 3 and 100 characters"
	case "CategoryID":
		return "category is required"
	}

	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}

// mutate applies fn and persists the budget of p. Any failure restores the
// budget to what it was before fn ran.
func (s *Service) mutate(ctx context.Context, p Period, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.store.Lookup(p)

	rollback := func() {
		if existed {
			s.store.Put(prev)
		} else {
			s.store.Remove(p)
		}
	}

	if err := fn(); err != nil {
		rollback()
		return err
	}

	if s.repo == nil {
		return nil
	}

	cur, _ := s.store.Lookup(p)
	if err := s.repo.SaveBudget(ctx, &cur); err != nil {
		rollback()
		slog.ErrorContext(ctx, "failed to persist budget, rolled back", "period", p.Key(), "error", err)

		return fmt.Errorf("saving budget %s: %w", p.Key(), err)
	}

	return nil
}

func (s *Service) publish(ctx context.Context, events ...Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}

	now := s.now()
	for i := range events {
		events[i].OccurredAt = now
	}

	if err := s.publisher.Publish(ctx, events...); err != nil {
		slog.WarnContext(ctx, "failed to publish events",
			"type", events[0].Type, "period", events[0].Period.Key(), "count", len(events), "error", err)
	}
}
