package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/budgetnest/internal/budget"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindMatch(ctx context.Context, description string) (string, error)
	CreateMapping(ctx context.Context, pattern, categoryID string) error
}

// Service suggests a category for an expense description from previously
// learned patterns.
type Service struct {
	repo       Repository
	categories map[string]bool
}

func NewService(repo Repository) *Service {
	known := map[string]bool{}
	for _, c := range budget.DefaultCategories() {
		known[c.ID] = true
	}

	return &Service{repo: repo, categories: known}
}

// Suggest returns the category id of the longest pattern contained in the
// description, ignoring case. Returns an empty string if nothing matches.
func (s *Service) Suggest(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", nil
	}

	return s.repo.FindMatch(ctx, description)
}

// Learn remembers that descriptions containing pattern belong to categoryID.
// Learning the same pattern again replaces its category.
func (s *Service) Learn(ctx context.Context, pattern, categoryID string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("%w: pattern is required", budget.ErrValidation)
	}

	if !s.categories[categoryID] {
		return fmt.Errorf("%w: %q", budget.ErrInvalidCategory, categoryID)
	}

	return s.repo.CreateMapping(ctx, pattern, categoryID)
}
