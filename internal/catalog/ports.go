package catalog

import (
	"context"
	"net/http"
	"time"
)

//go:generate mockgen -destination=mock_repository.go -package=catalog ebookstore/internal/catalog Repository

// Repository defines the contract for reading the book catalog.
type Repository interface {
	// FindAll returns every book in insertion order.
	FindAll(ctx context.Context) []Book
	// FindByID reports false when no book has the id.
	FindByID(ctx context.Context, id string) (Book, bool)
}

// Ownership describes a device's purchase of a book as shown on the detail view.
type Ownership struct {
	Reference    string    `json:"reference"`
	PurchaseDate time.Time `json:"purchase_date"`
	DownloadPath string    `json:"download_path"`
}

// OwnershipChecker resolves the requesting device's purchase of a book.
type OwnershipChecker interface {
	Ownership(r *http.Request, bookID string) (Ownership, bool)
}
