package matching

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

type mapping struct {
	pattern    string
	folded     string
	categoryID string
}

// MemoryRepository keeps mappings in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	mappings []mapping
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) FindMatch(_ context.Context, description string) (string, error) {
	fold := cases.Fold()
	needle := fold.String(description)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *mapping

	for i := range r.mappings {
		m := &r.mappings[i]
		if !strings.Contains(needle, m.folded) {
			continue
		}

		// later mappings win ties
		if best == nil || len(m.folded) >= len(best.folded) {
			best = m
		}
	}

	if best == nil {
		return "", nil
	}

	return best.categoryID, nil
}

func (r *MemoryRepository) CreateMapping(_ context.Context, pattern, categoryID string) error {
	folded := cases.Fold().String(pattern)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.mappings {
		if r.mappings[i].folded == folded {
			r.mappings[i].pattern = pattern
			r.mappings[i].categoryID = categoryID

			return nil
		}
	}

	r.mappings = append(r.mappings, mapping{pattern: pattern, folded: folded, categoryID: categoryID})

	return nil
}
