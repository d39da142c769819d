// Package session issues, resolves and revokes opaque session tokens.
//
// A session is Active from creation until its expiry instant, after which
// Lookup reports it absent even if the record is still stored. Revoke
// deletes it outright. Storage is delegated to a Repository; expiry policy
// lives here.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/thejerf/abtime"
	"github.com/zeebo/blake3"

	"github.com/nhle/tracker/internal/model"
)

// tokenBytes is the entropy of a session token.
const tokenBytes = 32

// tokenLength is the encoded length of a well-formed token.
var tokenLength = base64.RawURLEncoding.EncodedLen(tokenBytes)

// Repository persists session records keyed by token digest.
type Repository interface {
	CreateSession(ctx context.Context, s model.Session) error

	// GetSession returns the record for tokenHash. The bool is false when
	// no record exists; expiry is not checked.
	GetSession(ctx context.Context, tokenHash string) (model.Session, bool, error)

	// DeleteSession removes the record. Deleting a missing record is not
	// an error.
	DeleteSession(ctx context.Context, tokenHash string) error

	// DeleteUserSessions removes every session of userID except the one
	// whose digest is exceptHash (which may be empty).
	DeleteUserSessions(ctx context.Context, userID, exceptHash string) error

	// DeleteExpiredSessions removes records whose expiry is at or before
	// now and returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Settings configures a Store. The zero value is usable.
type Settings struct {
	// AbstractTime supplies the current time. Defaults to the real clock.
	abtime.AbstractTime

	// Random supplies token entropy. Defaults to crypto/rand.
	Random io.Reader
}

// Issued describes a freshly created session as seen by the caller that
// requested it.
type Issued struct {
	Token      string
	UserID     string
	Persistent bool
	ExpiresAt  time.Time
}

// Store applies session lifetime policy on top of a Repository.
type Store struct {
	repo  Repository
	clock abtime.AbstractTime
	rand  io.Reader
}

// NewStore returns a Store persisting to repo.
func NewStore(repo Repository, settings *Settings) *Store {
	s := &Store{repo: repo}
	if settings != nil {
		s.clock = settings.AbstractTime
		s.rand = settings.Random
	}
	if s.clock == nil {
		s.clock = abtime.NewRealTime()
	}
	if s.rand == nil {
		s.rand = rand.Reader
	}
	return s
}

// Now returns the store's notion of the current time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

// Create starts a session for userID. Persistent sessions last 30 days,
// others 24 hours.
func (s *Store) Create(ctx context.Context, userID string, persistent bool) (Issued, error) {
	token, err := s.newToken()
	if err != nil {
		return Issued{}, err
	}

	now := s.clock.Now().UTC()
	ttl := model.EphemeralSessionTTL
	if persistent {
		ttl = model.PersistentSessionTTL
	}

	rec := model.Session{
		TokenHash:  HashToken(token),
		UserID:     userID,
		Persistent: persistent,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := s.repo.CreateSession(ctx, rec); err != nil {
		return Issued{}, fmt.Errorf("creating session: %w", err)
	}

	return Issued{
		Token:      token,
		UserID:     userID,
		Persistent: persistent,
		ExpiresAt:  rec.ExpiresAt,
	}, nil
}

// Lookup returns the active session for token. Unknown, malformed and
// expired tokens all report false with a nil error; only storage failures
// produce an error. Expired records are left for Purge.
func (s *Store) Lookup(ctx context.Context, token string) (model.Session, bool, error) {
	if !wellFormed(token) {
		return model.Session{}, false, nil
	}

	rec, ok, err := s.repo.GetSession(ctx, HashToken(token))
	if err != nil {
		return model.Session{}, false, fmt.Errorf("looking up session: %w", err)
	}
	if !ok || rec.ExpiredAt(s.clock.Now()) {
		return model.Session{}, false, nil
	}
	return rec, true, nil
}

// Revoke ends the session for token. Revoking an unknown or already
// revoked token is not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if !wellFormed(token) {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// RevokeAllForUser ends every session of userID except keepToken, which
// may be empty to end them all.
func (s *Store) RevokeAllForUser(ctx context.Context, userID, keepToken string) error {
	except := ""
	if wellFormed(keepToken) {
		except = HashToken(keepToken)
	}
	if err := s.repo.DeleteUserSessions(ctx, userID, except); err != nil {
		return fmt.Errorf("revoking sessions for user %s: %w", userID, err)
	}
	return nil
}

// Purge deletes expired session records.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return n, nil
}

func (s *Store) newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.rand, b); err != nil {
		return "", fmt.Errorf("reading token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the at-rest digest of a session token.
func HashToken(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func wellFormed(token string) bool {
	if len(token) != tokenLength {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil
}
