package catalog

import (
	"context"
	"errors"
	"fmt"
)

// StaticRepo serves a fixed, in-memory list of books.
type StaticRepo struct {
	books []Book
	index map[string]int
}

// NewStaticRepo validates books and indexes them by id.
func NewStaticRepo(books []Book) (*StaticRepo, error) {
	index := make(map[string]int, len(books))
	for i, b := range books {
		if b.ID == "" {
			return nil, fmt.Errorf("book at position %d: %w", i, errors.New("missing id"))
		}
		if b.Price <= 0 {
			return nil, fmt.Errorf("book %q: price must be positive, got %d", b.ID, b.Price)
		}
		if _, dup := index[b.ID]; dup {
			return nil, fmt.Errorf("book %q: duplicate id", b.ID)
		}
		index[b.ID] = i
	}

	out := make([]Book, len(books))
	copy(out, books)
	return &StaticRepo{books: out, index: index}, nil
}

func (r *StaticRepo) FindAll(ctx context.Context) []Book {
	out := make([]Book, len(r.books))
	copy(out, r.books)
	return out
}

func (r *StaticRepo) FindByID(ctx context.Context, id string) (Book, bool) {
	i, ok := r.index[id]
	if !ok {
		return Book{}, false
	}
	return r.books[i], true
}
