package identity_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"

	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/session"
	"github.com/nhle/tracker/internal/store"
	"github.com/nhle/tracker/tests/testutil"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestStore(t)
	clock := abtime.NewManualAtTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sessions := session.NewStore(db, &session.Settings{AbstractTime: clock})
	resolver := identity.NewResolver(sessions, db)

	user := testutil.CreateUser(t, db, "alice@example.com")
	issued, err := sessions.Create(ctx, user.ID, false)
	require.NoError(t, err)

	p, err := resolver.Resolve(ctx, issued.Token)
	require.NoError(t, err)
	assert.False(t, p.IsAnonymous())
	assert.Equal(t, user.ID, p.UserID())
	assert.Equal(t, issued.Token, p.SessionToken())
	got, ok := p.User()
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", got.Email)

	for _, token := range []string{"", "garbage"} {
		p, err := resolver.Resolve(ctx, token)
		require.NoError(t, err)
		assert.True(t, p.IsAnonymous(), "token %q", token)
	}

	clock.Advance(25 * time.Hour)
	p, err = resolver.Resolve(ctx, issued.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAnonymous())
}

// userLookup knows no users and fails for failID.
type userLookup struct {
	failID string
}

func (u userLookup) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if id == u.failID {
		return nil, errors.New("database is locked")
	}
	return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
}

func TestResolveUserLookupOutcomes(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestStore(t)
	sessions := session.NewStore(db, nil)

	deleted := testutil.CreateUser(t, db, "gone@example.com")
	broken := testutil.CreateUser(t, db, "broken@example.com")

	gone, err := sessions.Create(ctx, deleted.ID, false)
	require.NoError(t, err)
	failing, err := sessions.Create(ctx, broken.ID, false)
	require.NoError(t, err)

	resolver := identity.NewResolver(sessions, userLookup{failID: broken.ID})

	p, err := resolver.Resolve(ctx, gone.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAnonymous())

	p, err = resolver.Resolve(ctx, failing.Token)
	require.Error(t, err)
	assert.True(t, p.IsAnonymous())
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.True(t, identity.FromContext(ctx).IsAnonymous())

	p := identity.Authenticated(model.User{ID: "u1", IsAdmin: true}, "tok")
	ctx = identity.WithPrincipal(ctx, p)
	got := identity.FromContext(ctx)
	assert.Equal(t, "u1", got.UserID())
	assert.True(t, got.IsAdmin())

	anon := identity.Anonymous
	assert.Equal(t, "", anon.UserID())
	assert.False(t, anon.IsAdmin())
	_, ok := anon.User()
	assert.False(t, ok)
}
