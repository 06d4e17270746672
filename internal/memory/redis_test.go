package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestLoad_EmptySession(t *testing.T) {
	store, _ := newTestStore(t)

	turns, err := store.Load(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAppendAndLoad_PreservesOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.Append(ctx, "s1",
		Turn{Role: "user", Content: "first question", Timestamp: now},
		Turn{Role: "agent", Content: "first answer", Timestamp: now},
	))
	require.NoError(t, store.Append(ctx, "s1",
		Turn{Role: "user", Content: "second question", Timestamp: now.Add(time.Second)},
		Turn{Role: "agent", Content: "second answer", Timestamp: now.Add(time.Second)},
	))

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, "first question", turns[0].Content)
	assert.Equal(t, "first answer", turns[1].Content)
	assert.Equal(t, "second question", turns[2].Content)
	assert.Equal(t, "second answer", turns[3].Content)
}

func TestAppend_SetsSessionTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "q"}))
	assert.Equal(t, SessionTTL, mr.TTL("memory:s1"))

	// Expiry drops the memory entirely.
	mr.FastForward(SessionTTL + time.Minute)
	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAppend_ResetsTTLOnWrite(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "q1"}))
	mr.FastForward(12 * time.Hour)
	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "agent", Content: "a1"}))

	assert.Equal(t, SessionTTL, mr.TTL("memory:s1"), "TTL counts from the last write")
}

func TestClear_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Turn{Role: "user", Content: "q"}))
	require.NoError(t, store.Clear(ctx, "s1"))

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Clearing a session with no memory is not an error.
	require.NoError(t, store.Clear(ctx, "s1"))
	require.NoError(t, store.Clear(ctx, "never-existed"))
}

func TestSessions_DoNotLeak(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "session-a", Turn{Role: "user", Content: "alpha"}))
	require.NoError(t, store.Append(ctx, "session-b", Turn{Role: "user", Content: "bravo"}))

	turnsA, err := store.Load(ctx, "session-a")
	require.NoError(t, err)
	require.Len(t, turnsA, 1)
	assert.Equal(t, "alpha", turnsA[0].Content)

	require.NoError(t, store.Clear(ctx, "session-a"))

	turnsB, err := store.Load(ctx, "session-b")
	require.NoError(t, err)
	require.Len(t, turnsB, 1)
	assert.Equal(t, "bravo", turnsB[0].Content)
}
