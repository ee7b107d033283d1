// Package entitlement records which books a device has paid for.
//
// The record sequence of a device lives as one JSON array under a single key of a persisted slot.
// Every write replaces the whole value, so two stores bound to the same device can race and the
// last writer wins.
package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SlotKey is the slot key the record sequence is stored under.
const SlotKey = "purchased_books"

var (
	// ErrUnavailable means the slot cannot be used in this context. Stores treat it as "nothing
	// purchased" and writes become no-ops.
	ErrUnavailable = errors.New("entitlement slot unavailable")
	// ErrCorrupt is returned when the stored value is not a record sequence.
	ErrCorrupt = errors.New("entitlement data unreadable")
)

// Record is proof that a device paid for a book.
type Record struct {
	BookID       string    `json:"bookId"`
	Reference    string    `json:"reference"`
	Email        string    `json:"email"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

// Slot is a per-scope key-value medium. Get returns (nil, nil) for an absent key.
type Slot interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Put(ctx context.Context, scope, key string, value []byte) error
}

// Store is the entitlement view of one device scope.
type Store struct {
	slot   Slot
	scope  string
	logger zerolog.Logger
}

func NewStore(slot Slot, scope string, logger zerolog.Logger) *Store {
	return &Store{
		slot:   slot,
		scope:  scope,
		logger: logger.With().Str("device_id", scope).Logger(),
	}
}

func (s *Store) load(ctx context.Context) ([]Record, error) {
	raw, err := s.slot.Get(ctx, s.scope, SlotKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return records, nil
}

// Append adds rec to the end of the sequence. An unavailable slot makes it a silent no-op.
// An unreadable existing value is left untouched and ErrCorrupt is returned.
func (s *Store) Append(ctx context.Context, rec Record) error {
	records, err := s.load(ctx)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			s.logger.Debug().Str("book_id", rec.BookID).Msg("entitlement slot unavailable, skipping append")
			return nil
		}
		return fmt.Errorf("append entitlement: %w", err)
	}

	raw, err := json.Marshal(append(records, rec))
	if err != nil {
		return fmt.Errorf("encode entitlements: %w", err)
	}
	if err := s.slot.Put(ctx, s.scope, SlotKey, raw); err != nil {
		if errors.Is(err, ErrUnavailable) {
			s.logger.Debug().Str("book_id", rec.BookID).Msg("entitlement slot unavailable, skipping append")
			return nil
		}
		return fmt.Errorf("append entitlement: %w", err)
	}

	s.logger.Info().Str("book_id", rec.BookID).Str("reference", rec.Reference).Msg("entitlement recorded")
	return nil
}

// ListAll returns every record in insertion order. It is empty when the slot is unavailable,
// empty or unreadable.
func (s *Store) ListAll(ctx context.Context) []Record {
	records, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			s.logger.Warn().Err(err).Msg("reading entitlements")
		}
		return []Record{}
	}
	if records == nil {
		return []Record{}
	}
	return records
}

func (s *Store) HasEntitlement(ctx context.Context, bookID string) bool {
	_, ok := s.FindByBookID(ctx, bookID)
	return ok
}

// FindByBookID returns the first record for bookID.
func (s *Store) FindByBookID(ctx context.Context, bookID string) (Record, bool) {
	for _, r := range s.ListAll(ctx) {
		if r.BookID == bookID {
			return r, true
		}
	}
	return Record{}, false
}
