package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"

	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/session"
)

const redisPrefix = "tracker-test:"

// newRedisStore returns a Store backed by an in-process Redis server whose
// clock is pinned to epoch, far from the wall clock.
func newRedisStore(t *testing.T) (*session.Store, *session.RedisRepository, *miniredis.Miniredis, *abtime.ManualTime) {
	t.Helper()
	mr := miniredis.RunT(t)

	rdb, err := session.DialRedis(context.Background(), model.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	repo := session.NewRedisRepository(rdb, redisPrefix)
	clock := abtime.NewManualAtTime(epoch)
	return session.NewStore(repo, &session.Settings{AbstractTime: clock}), repo, mr, clock
}

func TestRedisSessions(t *testing.T) {
	ctx := context.Background()
	sessions, _, _, _ := newRedisStore(t)

	a, err := sessions.Create(ctx, "alice", false)
	require.NoError(t, err)
	b, err := sessions.Create(ctx, "alice", true)
	require.NoError(t, err)
	other, err := sessions.Create(ctx, "bob", false)
	require.NoError(t, err)

	got, ok, err := sessions.Lookup(ctx, a.Token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", got.UserID)
	assert.False(t, got.Persistent)
	assert.Equal(t, epoch.Add(24*time.Hour), got.ExpiresAt)

	require.NoError(t, sessions.RevokeAllForUser(ctx, "alice", b.Token))
	_, ok, err = sessions.Lookup(ctx, a.Token)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = sessions.Lookup(ctx, b.Token)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = sessions.Lookup(ctx, other.Token)
	require.NoError(t, err)
	assert.True(t, ok, "other users keep their sessions")

	require.NoError(t, sessions.Revoke(ctx, b.Token))
	require.NoError(t, sessions.Revoke(ctx, b.Token))
	_, ok, err = sessions.Lookup(ctx, b.Token)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := sessions.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisSessionTTLFollowsStoreClock(t *testing.T) {
	ctx := context.Background()
	sessions, _, mr, _ := newRedisStore(t)

	short, err := sessions.Create(ctx, "alice", false)
	require.NoError(t, err)
	long, err := sessions.Create(ctx, "alice", true)
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, mr.TTL(redisPrefix+"session:"+session.HashToken(short.Token)))
	assert.Equal(t, 30*24*time.Hour, mr.TTL(redisPrefix+"session:"+session.HashToken(long.Token)))

	_, ok, err := sessions.Lookup(ctx, short.Token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisSessionExpires(t *testing.T) {
	ctx := context.Background()
	sessions, _, mr, clock := newRedisStore(t)

	short, err := sessions.Create(ctx, "alice", false)
	require.NoError(t, err)
	long, err := sessions.Create(ctx, "alice", true)
	require.NoError(t, err)

	mr.FastForward(24*time.Hour + time.Second)
	clock.Advance(24*time.Hour + time.Second)

	_, ok, err := sessions.Lookup(ctx, short.Token)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = sessions.Lookup(ctx, long.Token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRejectsRecordWithoutLifetime(t *testing.T) {
	ctx := context.Background()
	_, repo, mr, _ := newRedisStore(t)

	err := repo.CreateSession(ctx, model.Session{
		TokenHash: "digest",
		UserID:    "alice",
		CreatedAt: epoch,
		ExpiresAt: epoch,
	})
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}
