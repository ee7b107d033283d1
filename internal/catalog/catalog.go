package catalog

import (
	"errors"
)

// ErrNotFound is returned when a book is not in the catalog.
var ErrNotFound = errors.New("book not found")

// Currency is the ISO code every catalog price is expressed in.
const Currency = "NGN"

// Book is one e-book on sale. Books are loaded once at startup and never mutated.
type Book struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	Price       int64  `json:"price" yaml:"price"`
	Description string `json:"description" yaml:"description"`
	CoverImage  string `json:"coverImage,omitempty" yaml:"coverImage,omitempty"`
	FileURL     string `json:"fileUrl" yaml:"fileUrl"`
	Category    string `json:"category" yaml:"category"`
}

// MinorAmount is the price in the smallest currency unit (kobo for NGN).
func (b Book) MinorAmount() int64 {
	return b.Price * 100
}

// Query filters and paginates a catalog listing.
type Query struct {
	Category string
	Limit    int
	Offset   int
}
