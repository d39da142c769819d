// Package identity maps an inbound session token to the calling user.
//
// The result is an immutable Principal that is resolved once per request and
// passed down explicitly, usually through a context.Context.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/session"
	"github.com/nhle/tracker/internal/store"
)

// Principal is the caller of an operation: an authenticated user or
// anonymous.
type Principal struct {
	user  *model.User
	token string
}

// Anonymous is the principal of a caller without a valid session.
var Anonymous = Principal{}

// Authenticated returns the principal for user, holding the session token
// it was resolved from (empty when not resolved from a session).
func Authenticated(user model.User, token string) Principal {
	u := user
	return Principal{user: &u, token: token}
}

// IsAnonymous reports whether no user is attached.
func (p Principal) IsAnonymous() bool {
	return p.user == nil
}

// UserID returns the caller's user id, or "" when anonymous.
func (p Principal) UserID() string {
	if p.user == nil {
		return ""
	}
	return p.user.ID
}

// User returns a copy of the caller's user record and whether there is one.
func (p Principal) User() (model.User, bool) {
	if p.user == nil {
		return model.User{}, false
	}
	return *p.user, true
}

// IsAdmin reports whether the caller is an administrator.
func (p Principal) IsAdmin() bool {
	return p.user != nil && p.user.IsAdmin
}

// SessionToken returns the token the principal was resolved from.
func (p Principal) SessionToken() string {
	return p.token
}

// UserLookup loads users by id.
type UserLookup interface {
	// GetUserByID returns the user, or an error wrapping store.ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Resolver turns session tokens into principals.
type Resolver struct {
	sessions *session.Store
	users    UserLookup
}

// NewResolver returns a Resolver backed by the given session store and
// user lookup.
func NewResolver(sessions *session.Store, users UserLookup) *Resolver {
	return &Resolver{sessions: sessions, users: users}
}

// Resolve returns the principal for token. An empty, malformed, unknown or
// expired token yields Anonymous with a nil error, as does a session whose
// user has since been deleted. Errors are reserved for storage failures.
func (r *Resolver) Resolve(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Anonymous, nil
	}

	sess, ok, err := r.sessions.Lookup(ctx, token)
	if err != nil {
		return Anonymous, fmt.Errorf("resolving identity: %w", err)
	}
	if !ok {
		return Anonymous, nil
	}

	user, err := r.users.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return Anonymous, nil
	}
	if err != nil {
		return Anonymous, fmt.Errorf("resolving identity: %w", err)
	}

	return Authenticated(*user, token), nil
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Principal {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok {
		return Anonymous
	}
	return p
}
