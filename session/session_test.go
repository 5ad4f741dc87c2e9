package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeHarness exposes a store together with a way to let time pass
type storeHarness struct {
	store   Store
	advance func(time.Duration)
}

func memoryHarness(t *testing.T) storeHarness {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(30 * time.Minute)
	store.now = func() time.Time { return now }
	return storeHarness{
		store:   store,
		advance: func(d time.Duration) { now = now.Add(d) },
	}
}

func redisHarness(t *testing.T) storeHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return storeHarness{
		store:   NewRedisStore(client, 30*time.Minute, nil),
		advance: mr.FastForward,
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, h storeHarness)) {
	t.Run("memory", func(t *testing.T) { fn(t, memoryHarness(t)) })
	t.Run("redis", func(t *testing.T) { fn(t, redisHarness(t)) })
}

func TestStore_CreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, h storeHarness) {
		ctx := context.Background()

		created, err := h.store.Create(ctx, "", "")
		require.NoError(t, err)
		_, err = uuid.Parse(created.ID)
		assert.NoError(t, err, "session ids are UUIDs")
		assert.Equal(t, DefaultSourceLanguage, created.SourceLanguage)
		assert.Equal(t, DefaultTargetLanguage, created.TargetLanguage)
		assert.Empty(t, created.Entries)

		got, err := h.store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "es-ES", got.TargetLanguage)
	})
}

func TestStore_UnknownID(t *testing.T) {
	forEachStore(t, func(t *testing.T, h storeHarness) {
		ctx := context.Background()

		_, err := h.store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = h.store.UpdateLanguages(ctx, "missing", LanguageUpdate{TargetLanguage: "fr-FR"})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = h.store.AppendEntry(ctx, "missing", Entry{Original: "a"})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, h.store.Delete(ctx, "missing"), ErrNotFound)
	})
}

func TestStore_PartialLanguageUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, h storeHarness) {
		ctx := context.Background()
		created, err := h.store.Create(ctx, "de-DE", "it-IT")
		require.NoError(t, err)

		updated, err := h.store.UpdateLanguages(ctx, created.ID, LanguageUpdate{TargetLanguage: "ja-JP"})
		require.NoError(t, err)
		assert.Equal(t, "de-DE", updated.SourceLanguage)
		assert.Equal(t, "ja-JP", updated.TargetLanguage)

		got, err := h.store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ja-JP", got.TargetLanguage)
	})
}

func TestStore_AppendEntry(t *testing.T) {
	forEachStore(t, func(t *testing.T, h storeHarness) {
		ctx := context.Background()
		created, err := h.store.Create(ctx, "en-US", "es-ES")
		require.NoError(t, err)

		_, err = h.store.AppendEntry(ctx, created.ID, Entry{Original: "Call [PHONE]", Translation: "Llame al [PHONE]"})
		require.NoError(t, err)
		updated, err := h.store.AppendEntry(ctx, created.ID, Entry{Original: "Thanks", Translation: "Gracias"})
		require.NoError(t, err)

		require.Len(t, updated.Entries, 2)
		assert.Equal(t, "Call [PHONE]", updated.Entries[0].Original)
		assert.Equal(t, "Gracias", updated.Entries[1].Translation)
		assert.False(t, updated.Entries[0].CreatedAt.IsZero())
	})
}

func TestStore_Delete(t *testing.T) {
	forEachStore(t, func(t *testing.T, h storeHarness) {
		ctx := context.Background()
		created, err := h.store.Create(ctx, "", "")
		require.NoError(t, err)

		require.NoError(t, h.store.Delete(ctx, created.ID))
		_, err = h.store.Get(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_SlidingExpiry(t *testing.T) {
	forEachStore(t, func(t *testing.T, h storeHarness) {
		ctx := context.Background()
		created, err := h.store.Create(ctx, "", "")
		require.NoError(t, err)

		// Activity every 20 minutes keeps the session alive past 30 minutes.
		for i := 0; i < 3; i++ {
			h.advance(20 * time.Minute)
			_, err := h.store.Get(ctx, created.ID)
			require.NoError(t, err, "access %d", i+1)
		}

		h.advance(31 * time.Minute)
		_, err = h.store.Get(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_ConcurrentAppends(t *testing.T) {
	forEachStore(t, func(t *testing.T, h storeHarness) {
		ctx := context.Background()
		created, err := h.store.Create(ctx, "", "")
		require.NoError(t, err)

		const writers = 4
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := h.store.AppendEntry(ctx, created.ID, Entry{Original: fmt.Sprintf("line %d", i)})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := h.store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, got.Entries, writers)
	})
}

func TestMemoryStore_BoundsEntries(t *testing.T) {
	h := memoryHarness(t)
	ctx := context.Background()
	created, err := h.store.Create(ctx, "", "")
	require.NoError(t, err)

	var last *Session
	for i := 0; i < MaxEntries+5; i++ {
		last, err = h.store.AppendEntry(ctx, created.ID, Entry{Original: fmt.Sprintf("line %d", i)})
		require.NoError(t, err)
	}
	require.Len(t, last.Entries, MaxEntries)
	assert.Equal(t, "line 5", last.Entries[0].Original)
}

func TestMemoryStore_CreateSweepsExpired(t *testing.T) {
	h := memoryHarness(t)
	store := h.store.(*MemoryStore)
	ctx := context.Background()

	_, err := store.Create(ctx, "", "")
	require.NoError(t, err)
	h.advance(time.Hour)
	_, err = store.Create(ctx, "", "")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	h := memoryHarness(t)
	ctx := context.Background()
	created, err := h.store.Create(ctx, "", "")
	require.NoError(t, err)

	created.TargetLanguage = "mutated"
	got, err := h.store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetLanguage, got.TargetLanguage)
}
