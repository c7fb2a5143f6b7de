package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventBudgetUpdated           EventType = "budget.updated"
	EventExpenseRecorded         EventType = "expense.recorded"
	EventExpenseUpdated          EventType = "expense.updated"
	EventExpenseDeleted          EventType = "expense.deleted"
	EventCategorySpentOverridden EventType = "category.spent_overridden"
)

// Event describes a committed change to a budget.
type Event struct {
	Type       EventType
	Period     Period
	ExpenseID  uuid.UUID
	CategoryID string
	Amount     decimal.Decimal
	OccurredAt time.Time
}
