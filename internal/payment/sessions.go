package payment

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

type session struct {
	desc    Descriptor
	results chan Result
}

// Sessions tracks open payment sessions until their callback arrives. Sessions have no timeout:
// the registry holds at most size of them and silently forgets the oldest, which then behaves
// exactly like an abandoned session. A settled session leaves the registry at once; only its
// reference is remembered, in a separate bounded set, so a repeated callback is told it came late.
type Sessions struct {
	widget  Widget
	mu      sync.Mutex
	pending *lru.Cache[string, *session]
	settled *lru.Cache[string, struct{}]
	logger  zerolog.Logger
}

func NewSessions(widget Widget, size int, logger zerolog.Logger) (*Sessions, error) {
	pending, err := lru.New[string, *session](size)
	if err != nil {
		return nil, fmt.Errorf("payment sessions: %w", err)
	}
	settled, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("settled payment sessions: %w", err)
	}
	return &Sessions{
		widget:  widget,
		pending: pending,
		settled: settled,
		logger:  logger.With().Str("provider", widget.Name()).Logger(),
	}, nil
}

// Provider names the configured widget.
func (s *Sessions) Provider() string {
	return s.widget.Name()
}

// Open validates d, prepares the widget and registers the session. The returned channel receives
// exactly one Result, or nothing if the session is abandoned.
func (s *Sessions) Open(ctx context.Context, d Descriptor) (Launch, <-chan Result, error) {
	if err := ValidateEmail(d.Email); err != nil {
		return Launch{}, nil, err
	}

	launch, err := s.widget.Prepare(ctx, d)
	if err != nil {
		return Launch{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending.Contains(d.Reference) || s.settled.Contains(d.Reference) {
		return Launch{}, nil, fmt.Errorf("payment reference %q already in use", d.Reference)
	}
	results := make(chan Result, 1)
	if evicted := s.pending.Add(d.Reference, &session{desc: d, results: results}); evicted {
		s.logger.Debug().Msg("pending session evicted")
	}

	s.logger.Info().
		Str("reference", d.Reference).
		Str("book_id", d.BookID).
		Int64("amount", d.Amount).
		Msg("payment session opened")
	return launch, results, nil
}

// Succeed delivers the widget's success callback. externalRef is the reference the provider
// reports, which becomes the purchase reference.
func (s *Sessions) Succeed(reference, externalRef string) error {
	if externalRef == "" {
		externalRef = reference
	}
	return s.resolve(reference, Success(externalRef))
}

// Cancel delivers the widget's close-without-paying callback.
func (s *Sessions) Cancel(reference string) error {
	return s.resolve(reference, Cancelled())
}

// Lookup returns the descriptor of a known session.
func (s *Sessions) Lookup(reference string) (Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.pending.Peek(reference)
	if !ok {
		return Descriptor{}, false
	}
	return sess.desc, true
}

func (s *Sessions) resolve(reference string, res Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settled.Contains(reference) {
		return ErrSessionSettled
	}
	sess, ok := s.pending.Peek(reference)
	if !ok {
		return ErrSessionNotFound
	}
	s.pending.Remove(reference)
	s.settled.Add(reference, struct{}{})
	sess.results <- res
	close(sess.results)

	s.logger.Info().
		Str("reference", reference).
		Stringer("outcome", res.Outcome).
		Msg("payment session settled")
	return nil
}
