package entitlement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(slot Slot, scope string) *Store {
	return NewStore(slot, scope, zerolog.Nop())
}

func record(bookID, ref string) Record {
	return Record{
		BookID:       bookID,
		Reference:    ref,
		Email:        "a@b.com",
		PurchaseDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_AppendThenHasEntitlement(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		s := newTestStore(NewMemorySlot(), "dev")
		rec := record(fmt.Sprintf("b%d", i), fmt.Sprintf("ref-%d", i))

		require.NoError(t, s.Append(ctx, rec))
		assert.True(t, s.HasEntitlement(ctx, rec.BookID))
	}
}

func TestStore_EmptySlot(t *testing.T) {
	s := newTestStore(NewMemorySlot(), "dev")
	ctx := context.Background()

	assert.Empty(t, s.ListAll(ctx))
	assert.NotNil(t, s.ListAll(ctx))
	assert.False(t, s.HasEntitlement(ctx, "b1"))
	_, ok := s.FindByBookID(ctx, "b1")
	assert.False(t, ok)
}

func TestStore_ListAllIsStable(t *testing.T) {
	s := newTestStore(NewMemorySlot(), "dev")
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, record("b1", "ref-1")))
	require.NoError(t, s.Append(ctx, record("b2", "ref-2")))

	first := s.ListAll(ctx)
	second := s.ListAll(ctx)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "b1", first[0].BookID)
	assert.Equal(t, "b2", first[1].BookID)
}

func TestStore_FindByBookIDReturnsFirstMatch(t *testing.T) {
	s := newTestStore(NewMemorySlot(), "dev")
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, record("b1", "ref-1")))
	require.NoError(t, s.Append(ctx, record("b1", "ref-2")))

	got, ok := s.FindByBookID(ctx, "b1")
	require.True(t, ok)
	assert.Equal(t, "ref-1", got.Reference)
}

func TestStore_ScopesAreIsolated(t *testing.T) {
	slot := NewMemorySlot()
	ctx := context.Background()
	a := newTestStore(slot, "device-a")
	b := newTestStore(slot, "device-b")

	require.NoError(t, a.Append(ctx, record("b1", "ref-1")))

	assert.True(t, a.HasEntitlement(ctx, "b1"))
	assert.False(t, b.HasEntitlement(ctx, "b1"))
}

func TestStore_UnavailableSlotIsSilent(t *testing.T) {
	s := newTestStore(UnavailableSlot{}, "dev")
	ctx := context.Background()

	assert.NoError(t, s.Append(ctx, record("b1", "ref-1")))
	assert.Empty(t, s.ListAll(ctx))
	assert.False(t, s.HasEntitlement(ctx, "b1"))
}

func TestStore_CorruptValue(t *testing.T) {
	slot := NewMemorySlot()
	ctx := context.Background()
	require.NoError(t, slot.Put(ctx, "dev", SlotKey, []byte("{not json")))
	s := newTestStore(slot, "dev")

	assert.Empty(t, s.ListAll(ctx))

	err := s.Append(ctx, record("b1", "ref-1"))
	assert.ErrorIs(t, err, ErrCorrupt)

	raw, err := slot.Get(ctx, "dev", SlotKey)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw), "unreadable value must not be clobbered")
}

func TestStore_WireFormat(t *testing.T) {
	slot := NewMemorySlot()
	ctx := context.Background()
	s := newTestStore(slot, "dev")
	require.NoError(t, s.Append(ctx, record("b1", "ref-1")))

	raw, err := slot.Get(ctx, "dev", SlotKey)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"bookId":"b1","reference":"ref-1","email":"a@b.com","purchaseDate":"2024-05-01T12:00:00Z"}]`,
		string(raw))
}

type failingPutSlot struct{ *MemorySlot }

func (failingPutSlot) Put(ctx context.Context, scope, key string, value []byte) error {
	return errors.New("disk full")
}

func TestStore_PutFailureIsReturned(t *testing.T) {
	s := newTestStore(failingPutSlot{NewMemorySlot()}, "dev")
	err := s.Append(context.Background(), record("b1", "ref-1"))
	assert.Error(t, err)
}

func TestStore_SharedScopeSeesEarlierAppends(t *testing.T) {
	slot := NewMemorySlot()
	ctx := context.Background()
	tab1 := newTestStore(slot, "dev")
	tab2 := newTestStore(slot, "dev")

	seq1 := tab1.ListAll(ctx)
	seq2 := tab2.ListAll(ctx)
	assert.Empty(t, seq1)
	assert.Empty(t, seq2)

	require.NoError(t, tab1.Append(ctx, record("b1", "ref-1")))
	require.NoError(t, tab2.Append(ctx, record("b2", "ref-2")))

	// sequential appends through the shared slot keep both records
	assert.Len(t, tab1.ListAll(ctx), 2)
}
