package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/store"
)

// Outcomes reported to callers. Denials never say which rule failed.
var (
	// ErrNotAuthenticated means the caller has no valid session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAccessDenied means the caller is known but lacks the right.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound covers both missing entities and entities the caller may
	// not view.
	ErrNotFound = errors.New("not found")

	// ErrConflict means well-formed input collided with existing state.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned by Login for an unknown email and
	// for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError lists the constraints the input violated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}

// denied translates a negative decision for p.
func denied(p identity.Principal) error {
	if p.IsAnonymous() {
		return ErrNotAuthenticated
	}
	return ErrAccessDenied
}

// storeErr maps persistence sentinels onto service outcomes and wraps
// anything else as an internal failure.
func storeErr(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	}
	return fmt.Errorf("%s: %w", action, err)
}

// isOutcome reports whether err is already a caller-facing outcome, so
// transaction bodies can return it unchanged.
func isOutcome(err error) bool {
	var verr *ValidationError
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.As(err, &verr)
}
