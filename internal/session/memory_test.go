package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	rec := &Record{ID: "s1", GameID: "chess", PlayerIDs: []string{"a", "b"}}
	require.NoError(t, s.Put(ctx, rec))
	assert.EqualValues(t, 1, rec.Version)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.EqualValues(t, 1, got.Version)

	// The store holds its own copy.
	got.PlayerIDs[0] = "mallory"
	again, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.PlayerIDs[0])

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreVersionCheck(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Put(ctx, &Record{ID: "s1"}))

	// Two readers race; the second writer carries a stale version.
	first, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	second, err := s.Get(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, first))
	assert.ErrorIs(t, s.Put(ctx, second), ErrVersionConflict)

	// A non-zero version against a missing id is not an insert.
	assert.ErrorIs(t, s.Put(ctx, &Record{ID: "ghost", Version: 3}), ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	require.NoError(t, s.Put(ctx, &Record{ID: "s1"}))
	require.NoError(t, s.Delete(ctx, "s1"))
	_, err := s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing id is not an error.
	assert.NoError(t, s.Delete(ctx, "s1"))
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	require.NoError(t, s.Put(ctx, &Record{ID: "idle"}))
	require.NoError(t, s.Put(ctx, &Record{ID: "fresh"}))
	require.NoError(t, s.Put(ctx, &Record{ID: "done", Ended: true}))

	// Age two records past the TTL.
	past := time.Now().Add(-2 * time.Minute)
	s.mu.Lock()
	s.sessions["idle"].UpdatedAt = past
	s.sessions["done"].UpdatedAt = past
	s.mu.Unlock()

	s.sweep(time.Now())

	_, err := s.Get(ctx, "idle")
	assert.ErrorIs(t, err, ErrNotFound, "idle session should expire")
	_, err = s.Get(ctx, "fresh")
	assert.NoError(t, err, "recently updated session should survive")
	_, err = s.Get(ctx, "done")
	assert.NoError(t, err, "ended sessions never expire by TTL")
}
