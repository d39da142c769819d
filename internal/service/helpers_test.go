package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"

	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/service"
	"github.com/nhle/tracker/internal/session"
	"github.com/nhle/tracker/internal/store"
	"github.com/nhle/tracker/tests/testutil"
)

type fixture struct {
	svc      *service.Service
	db       *store.SQLiteStore
	sessions *session.Store
	resolver *identity.Resolver
	clock    *abtime.ManualTime
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestStore(t)
	clock := abtime.NewManualAtTime(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	sessions := session.NewStore(db, &session.Settings{AbstractTime: clock})
	return &fixture{
		svc:      service.New(db, sessions, nil),
		db:       db,
		sessions: sessions,
		resolver: identity.NewResolver(sessions, db),
		clock:    clock,
	}
}

// as returns a context acting as u.
func as(u model.User) context.Context {
	return identity.WithPrincipal(context.Background(), identity.Authenticated(u, ""))
}

// withToken resolves token the way the transport does.
func (f *fixture) withToken(t *testing.T, token string) context.Context {
	t.Helper()
	p, err := f.resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	return identity.WithPrincipal(context.Background(), p)
}

func (f *fixture) user(t *testing.T, email string) model.User {
	return testutil.CreateUser(t, f.db, email)
}

func (f *fixture) project(t *testing.T, owner model.User, name string) service.ProjectView {
	t.Helper()
	view, err := f.svc.CreateProject(as(owner), service.ProjectInput{Name: name})
	require.NoError(t, err)
	return view
}

func (f *fixture) member(t *testing.T, owner model.User, projectID string, u model.User, role model.Role) model.Membership {
	t.Helper()
	m, err := f.svc.InviteMember(as(owner), projectID, service.InviteInput{Email: u.Email, Role: string(role)})
	require.NoError(t, err)
	return m
}

func (f *fixture) todo(t *testing.T, creator model.User, title string, projectIDs ...string) service.TodoView {
	t.Helper()
	view, err := f.svc.CreateTodo(as(creator), service.TodoInput{Title: title, ProjectIDs: projectIDs})
	require.NoError(t, err)
	return view
}

func problems(t *testing.T, err error) []string {
	t.Helper()
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Problems
}

func ptr[T any](v T) *T {
	return &v
}
