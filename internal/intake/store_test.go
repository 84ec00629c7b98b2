package intake

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Miss yields a fresh session, not an error.
	session, err := store.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.True(t, session.Empty())

	want := Session{Phase: PhaseOnset, Language: LanguageChinese, ChiefComplaint: "頭痛"}
	require.NoError(t, store.Save(ctx, "u1", want))
	require.NoError(t, store.Save(ctx, "u2", Session{Phase: PhaseEnd}))

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	ids, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)

	require.NoError(t, store.Archive(ctx, "u1"))
	ids, err = store.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, ids)
}

func newRedisStoreForTest(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl, nil), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, _ := newRedisStoreForTest(t, time.Hour)
	ctx := context.Background()

	session, err := store.Load(ctx, "absent")
	require.NoError(t, err)
	assert.True(t, session.Empty())

	want := Session{
		Phase:          PhaseSeverity,
		Language:       LanguageEnglish,
		ChiefComplaint: "stomach ache",
		HPI:            HPI{Onset: "2 days", QualitySite: "dull, lower right"},
		UpdatedAt:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, "u1", want))

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisStore_SessionExpiry(t *testing.T) {
	store, mr := newRedisStoreForTest(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", Session{Phase: PhaseOnset}))
	assert.Equal(t, time.Hour, mr.TTL("intake:session:u1"))

	mr.FastForward(2 * time.Hour)
	session, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, session.Empty(), "an expired session restarts the interview")
}

func TestRedisStore_ListAndArchive(t *testing.T) {
	store, _ := newRedisStoreForTest(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "line:bob", Session{Phase: PhaseOnset}))
	require.NoError(t, store.Save(ctx, "line:alice", Session{Phase: PhaseEnd}))

	ids, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"line:alice", "line:bob"}, ids)

	require.NoError(t, store.Archive(ctx, "line:bob"))

	ids, err = store.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"line:alice"}, ids)

	session, err := store.Load(ctx, "line:bob")
	require.NoError(t, err)
	assert.True(t, session.Empty())
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := newRedisStoreForTest(t, time.Hour)

	require.NoError(t, mr.Set("intake:session:u1", "{not json"))
	_, err := store.Load(context.Background(), "u1")
	assert.Error(t, err)
}
