package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
	enc "github.com/MrJamesThe3rd/budgetnest/internal/encoding"
)

type ExpenseImporter interface {
	ImportExpenses(ctx context.Context, p budget.Period, batch []budget.RecordParams) ([]budget.Expense, error)
}

// Suggester proposes a category id for a description. An empty id means no suggestion.
type Suggester interface {
	Suggest(ctx context.Context, description string) (string, error)
}

// Report summarizes one import.
type Report struct {
	Charset   enc.Charset
	Imported  []budget.Expense
	Suggested int
	Skipped   []Skipped
}

type Service struct {
	expenses  ExpenseImporter
	suggester Suggester
	parser    *Parser
}

// NewService builds an importer over the default categories. suggester may be nil.
func NewService(expenses ExpenseImporter, suggester Suggester) *Service {
	return &Service{
		expenses:  expenses,
		suggester: suggester,
		parser:    NewParser(budget.DefaultCategories()),
	}
}

// Import parses r and records every valid row in the budget of p. Rows without
// a known category are resolved through the suggester; if any row is still
// unresolved nothing is recorded.
func (s *Service) Import(ctx context.Context, p budget.Period, r io.Reader) (Report, error) {
	res, err := s.parser.Parse(r)
	if err != nil {
		return Report{}, err
	}

	report := Report{Charset: res.Charset, Skipped: res.Skipped, Imported: []budget.Expense{}}
	batch := make([]budget.RecordParams, 0, len(res.Rows))

	for _, row := range res.Rows {
		categoryID := row.CategoryID

		if categoryID == "" && s.suggester != nil {
			suggested, err := s.suggester.Suggest(ctx, row.Description)
			if err != nil {
				return Report{}, fmt.Errorf("suggesting category for line %d: %w", row.Line, err)
			}

			if suggested != "" {
				categoryID = suggested
				report.Suggested++
			}
		}

		if categoryID == "" {
			return Report{}, fmt.Errorf("%w: line %d: %q", budget.ErrInvalidCategory, row.Line, row.Category)
		}

		batch = append(batch, budget.RecordParams{
			CategoryID:  categoryID,
			Amount:      row.Amount,
			Description: row.Description,
			Date:        row.Date,
		})
	}

	if len(batch) == 0 {
		return report, nil
	}

	imported, err := s.expenses.ImportExpenses(ctx, p, batch)
	if err != nil {
		return Report{}, fmt.Errorf("importing expenses: %w", err)
	}

	report.Imported = imported

	slog.InfoContext(ctx, "expenses imported",
		"period", p.Key(),
		"charset", res.Charset,
		"imported", len(imported),
		"suggested", report.Suggested,
		"skipped", len(res.Skipped),
	)

	return report, nil
}
