// Package purchase drives a single book purchase from email entry to a recorded entitlement.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ebookstore/internal/catalog"
	"ebookstore/internal/entitlement"
	"ebookstore/internal/payment"

	"github.com/rs/zerolog"
)

var (
	// ErrNotFound covers an unknown book, flow or purchase record.
	ErrNotFound = errors.New("not found")
	// ErrUserCancelled is the visible, dismissible error after the buyer closes the widget.
	ErrUserCancelled = errors.New("payment was cancelled")
	// ErrAlreadyOwned means the device already holds an entitlement for the book.
	ErrAlreadyOwned = errors.New("book already purchased")
	// ErrInvalidState is returned for an operation the current state does not accept.
	ErrInvalidState = errors.New("operation not allowed in current state")
)

type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateInFlight
	StateSucceeded
	StateCancelled
	StateAlreadyOwned
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateCancelled:
		return "cancelled"
	case StateAlreadyOwned:
		return "already_owned"
	default:
		return "unknown"
	}
}

// Opener starts payment sessions. *payment.Sessions implements it.
type Opener interface {
	Open(ctx context.Context, d payment.Descriptor) (payment.Launch, <-chan payment.Result, error)
}

// Confirmation is where a successful purchase leads.
type Confirmation struct {
	Reference string `json:"reference"`
	BookID    string `json:"book_id"`
}

// Flow is one purchase attempt for one book on one device. It is safe for concurrent use, but
// only one session is ever in flight.
type Flow struct {
	book     catalog.Book
	store    *entitlement.Store
	sessions Opener
	currency string
	now      func() time.Time
	logger   zerolog.Logger

	mu           sync.Mutex
	state        State
	err          error
	email        string
	desc         payment.Descriptor
	results      <-chan payment.Result
	purchasedAt  time.Time
	confirmation Confirmation
}

func NewFlow(book catalog.Book, store *entitlement.Store, sessions Opener, currency string, logger zerolog.Logger) *Flow {
	return &Flow{
		book:     book,
		store:    store,
		sessions: sessions,
		currency: currency,
		now:      time.Now,
		logger:   logger.With().Str("book_id", book.ID).Logger(),
		state:    StateIdle,
	}
}

func (f *Flow) Book() catalog.Book { return f.book }

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err is the error currently shown to the buyer, if any.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Reference is the reference of the session in flight, or of the last one opened.
func (f *Flow) Reference() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.desc.Reference
}

func (f *Flow) Confirmation() Confirmation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmation
}

func (f *Flow) transition(to State) {
	f.logger.Debug().Stringer("from", f.state).Stringer("to", to).Msg("purchase state")
	f.state = to
}

// Enter moves Idle to AwaitingInput, or to AlreadyOwned when the device already owns the book.
func (f *Flow) Enter(ctx context.Context) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateIdle {
		return f.state, ErrInvalidState
	}
	if f.store.HasEntitlement(ctx, f.book.ID) {
		f.transition(StateAlreadyOwned)
		return f.state, nil
	}
	f.transition(StateAwaitingInput)
	return f.state, nil
}

// Submit opens a payment session for email under a fresh reference. Validation and configuration
// failures leave the flow in AwaitingInput.
func (f *Flow) Submit(ctx context.Context, email string) (payment.Launch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateAwaitingInput {
		return payment.Launch{}, ErrInvalidState
	}

	d := payment.NewDescriptor(f.book.ID, f.book.Title, f.book.Price, f.currency, email)
	launch, results, err := f.sessions.Open(ctx, d)
	if err != nil {
		f.err = err
		return payment.Launch{}, err
	}

	f.err = nil
	f.email = d.Email
	f.desc = d
	f.results = results
	f.transition(StateInFlight)
	return launch, nil
}

// Await blocks until the in-flight session resolves or ctx is done. On success the entitlement is
// recorded and the confirmation returned. On cancellation the flow is ready for another Submit and
// ErrUserCancelled is returned. A done ctx leaves the flow in flight.
func (f *Flow) Await(ctx context.Context) (Confirmation, error) {
	f.mu.Lock()
	if f.state != StateInFlight {
		f.mu.Unlock()
		return Confirmation{}, ErrInvalidState
	}
	results := f.results
	f.mu.Unlock()

	var (
		res payment.Result
		ok  bool
	)
	// a result that is already delivered wins over a done ctx
	select {
	case res, ok = <-results:
	default:
		select {
		case <-ctx.Done():
			return Confirmation{}, ctx.Err()
		case res, ok = <-results:
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateInFlight {
		return Confirmation{}, ErrInvalidState
	}
	f.results = nil

	if !ok || res.Outcome != payment.OutcomeSuccess {
		f.transition(StateCancelled)
		f.err = ErrUserCancelled
		f.transition(StateAwaitingInput)
		return Confirmation{}, ErrUserCancelled
	}

	rec := entitlement.Record{
		BookID:       f.book.ID,
		Reference:    res.Reference,
		Email:        f.email,
		PurchaseDate: f.now().UTC(),
	}
	if err := f.store.Append(ctx, rec); err != nil {
		// the payment went through, so the buyer still gets the confirmation
		f.logger.Error().Err(err).Str("reference", res.Reference).Msg("recording entitlement")
	}

	f.purchasedAt = rec.PurchaseDate
	f.confirmation = Confirmation{Reference: res.Reference, BookID: f.book.ID}
	f.err = nil
	f.transition(StateSucceeded)
	return f.confirmation, nil
}

// DismissError clears the visible error without changing state.
func (f *Flow) DismissError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = nil
}

// Receipt describes the committed purchase for the receipt event.
func (f *Flow) Receipt() (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSucceeded {
		return Receipt{}, fmt.Errorf("receipt: %w", ErrInvalidState)
	}
	return Receipt{
		Reference:    f.confirmation.Reference,
		BookID:       f.book.ID,
		BookTitle:    f.book.Title,
		Email:        f.email,
		Amount:       f.desc.Amount,
		Currency:     f.desc.Currency,
		PurchaseDate: f.purchasedAt,
	}, nil
}
