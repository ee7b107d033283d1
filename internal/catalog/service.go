package catalog

import (
	"context"
)

// Service provides catalog lookups.
type Service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the books matching q and the total before pagination.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int) {
	all := s.repo.FindAll(ctx)

	filtered := all[:0:0]
	for _, b := range all {
		if q.Category != "" && b.Category != q.Category {
			continue
		}
		filtered = append(filtered, b)
	}

	total := len(filtered)
	if q.Offset < 0 || q.Offset >= total {
		return []Book{}, total
	}
	end := total
	if q.Limit > 0 && q.Limit < total-q.Offset {
		end = q.Offset + q.Limit
	}
	return filtered[q.Offset:end], total
}

// Lookup reports false when id is not in the catalog.
func (s *Service) Lookup(ctx context.Context, id string) (Book, bool) {
	return s.repo.FindByID(ctx, id)
}

// Get returns ErrNotFound when id is not in the catalog.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	b, ok := s.repo.FindByID(ctx, id)
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}
