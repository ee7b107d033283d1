// Package payment runs single payment attempts against a hosted payment widget.
//
// A session is opened with a Descriptor, handed to the widget running in the buyer's browser, and
// resolved by exactly one callback: success with the widget's reference, or cancellation.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidEmail rejects a buyer email without an "@".
	ErrInvalidEmail = errors.New("please enter a valid email address")
	// ErrMissingCredential means the widget's public credential is not configured.
	ErrMissingCredential = errors.New("payment configuration error")
	// ErrSessionNotFound is returned for a callback naming no pending session.
	ErrSessionNotFound = errors.New("payment session not found")
	// ErrSessionSettled is returned for a second callback on the same session.
	ErrSessionSettled = errors.New("payment session already settled")
)

// CustomField is a labelled value the widget echoes back on the transaction.
type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// Descriptor is everything the widget needs to charge the buyer once.
type Descriptor struct {
	BookID    string
	BookTitle string
	// Amount is in minor units (kobo).
	Amount    int64
	Currency  string
	Reference string
	Email     string
	Metadata  []CustomField
}

// NewDescriptor prices a book purchase for email under a fresh reference.
func NewDescriptor(bookID, bookTitle string, price int64, currency, email string) Descriptor {
	return Descriptor{
		BookID:    bookID,
		BookTitle: bookTitle,
		Amount:    price * 100,
		Currency:  currency,
		Reference: GenerateReference(),
		Email:     strings.TrimSpace(email),
		Metadata: []CustomField{
			{DisplayName: "Book Title", VariableName: "book_title", Value: bookTitle},
			{DisplayName: "Book ID", VariableName: "book_id", Value: bookID},
		},
	}
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the single terminal callback of a session. Reference is set only on success.
type Result struct {
	Outcome   Outcome
	Reference string
}

func Success(reference string) Result { return Result{Outcome: OutcomeSuccess, Reference: reference} }

func Cancelled() Result { return Result{Outcome: OutcomeCancelled} }

// Launch is what the browser needs to open the widget.
type Launch struct {
	Provider  string      `json:"provider"`
	Reference string      `json:"reference"`
	Params    interface{} `json:"params"`
}

//go:generate mockgen -destination=mock_widget.go -package=payment ebookstore/internal/payment Widget

// Widget prepares the launch parameters of one hosted payment provider.
type Widget interface {
	Name() string
	// Prepare returns ErrMissingCredential when the provider is not configured.
	Prepare(ctx context.Context, d Descriptor) (Launch, error)
}

var validate = validator.New()

// ValidateEmail accepts anything containing an "@". Deliverability is the provider's concern.
func ValidateEmail(email string) error {
	if err := validate.Var(strings.TrimSpace(email), "required,contains=@"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
