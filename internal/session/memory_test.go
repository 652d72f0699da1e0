package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeroscout/fareengine/internal/models"
)

func newSession(id string) *models.SearchSession {
	return &models.SearchSession{
		SearchID: id,
		Phase:    models.PhaseOne,
		Status:   models.SessionRunning,
		Request:  models.SearchRequest{Origin: "PEK", Destination: "LAX"},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Set(ctx, newSession("s-1")))

	got, err = store.Get(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.SessionRunning, got.Status)
	assert.False(t, got.UpdatedAt.IsZero())

	ok, err := store.Exists(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreUpdate(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, newSession("s-1")))

	err := store.Update(ctx, "s-1", func(s *models.SearchSession) {
		s.Status = models.SessionCompleted
		s.Disclaimers = append(s.Disclaimers, "note")
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, got.Status)
	assert.Equal(t, []string{"note"}, got.Disclaimers)

	assert.ErrorIs(t, store.Update(ctx, "missing", func(*models.SearchSession) {}), ErrNotFound)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, newSession("s-1")))

	first, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	first.Status = models.SessionFailed

	second, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, second.Status)
}

func TestMemoryStoreEvictsOldestFirst(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Set(ctx, newSession(fmt.Sprintf("s-%d", i))))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s-3", "s-4", "s-5"}, ids)

	for _, id := range []string{"s-1", "s-2"} {
		ok, err := store.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, id)
	}
}

func TestMemoryStoreOverwriteDoesNotEvict(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, newSession("s-1")))
	require.NoError(t, store.Set(ctx, newSession("s-2")))
	require.NoError(t, store.Set(ctx, newSession("s-1")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, newSession("s-1")))
	require.NoError(t, store.Delete(ctx, "s-1"))
	require.NoError(t, store.Delete(ctx, "s-1"))

	ok, err := store.Exists(ctx, "s-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
