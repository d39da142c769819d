package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nhle/tracker/internal/credential"
	"github.com/nhle/tracker/internal/identity"
	"github.com/nhle/tracker/internal/model"
	"github.com/nhle/tracker/internal/session"
	"github.com/nhle/tracker/internal/store"
)

// RegisterInput is the payload of Setup and Register.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// LoginInput is the payload of Login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// ProfileInput changes the caller's own account. NewPassword requires
// CurrentPassword.
type ProfileInput struct {
	Name            *string `json:"name"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

// SignedIn is the result of Setup, Register and Login.
type SignedIn struct {
	User    model.User
	Session session.Issued
}

// fallbackDecoyHash is a cost 12 bcrypt hash of a password nobody uses.
const fallbackDecoyHash = "$2a$12$KeVFk6txqTxVw7KEAoEQee6j99XRbYFBCAwg2ZgxbttjKqDdQiUZ2"

var (
	decoyOnce sync.Once
	decoyHash string
)

// decoy returns a hash to compare against when the email is unknown, so
// both failure paths pay for one bcrypt comparison.
func decoy() string {
	decoyOnce.Do(func() {
		decoyHash = newDecoy(credential.HashPassword)
	})
	return decoyHash
}

func newDecoy(hash func(string) (string, error)) string {
	h, err := hash(uuid.NewString())
	if err != nil || h == "" {
		return fallbackDecoyHash
	}
	return h
}

func validateRegistration(in RegisterInput) (model.User, error) {
	email := credential.NormalizeEmail(in.Email)
	if !credential.ValidateEmailFormat(email) {
		return model.User{}, invalid("email is not a valid address")
	}
	if p := checkLength("name", in.Name, 0, MaxUserName); p != "" {
		return model.User{}, invalid(p)
	}
	if check := credential.ValidatePasswordStrength(in.Password); !check.Valid {
		return model.User{}, &ValidationError{Problems: check.Problems}
	}
	hash, err := credential.HashPassword(in.Password)
	if errors.Is(err, credential.ErrPasswordTooLong) {
		return model.User{}, invalid(err.Error())
	}
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
	}, nil
}

// Setup creates the first account, as an administrator, and signs it in.
// It fails with ErrConflict once any user exists.
func (s *Service) Setup(ctx context.Context, in RegisterInput) (SignedIn, error) {
	user, err := validateRegistration(in)
	if err != nil {
		return SignedIn{}, s.fail("setup", err)
	}
	user.IsAdmin = true

	err = s.inTx(ctx, "setup", func(q store.Queries) error {
		n, err := q.CountUsers(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		return storeErr(q.CreateUser(ctx, user), "creating user")
	})
	if err != nil {
		return SignedIn{}, err
	}

	s.logger.Info("setup completed", "user", user.ID)
	return s.signIn(ctx, user.ID, in.Remember)
}

// Register creates an ordinary account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (SignedIn, error) {
	user, err := validateRegistration(in)
	if err != nil {
		return SignedIn{}, s.fail("register", err)
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return SignedIn{}, s.fail("register", err)
	}
	s.logger.Info("user registered", "user", user.ID)
	return s.signIn(ctx, user.ID, in.Remember)
}

// Login checks credentials and starts a session. Unknown emails and wrong
// passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, in LoginInput) (SignedIn, error) {
	email := credential.NormalizeEmail(in.Email)
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		credential.VerifyPassword(in.Password, decoy())
		return SignedIn{}, ErrInvalidCredentials
	}
	if err != nil {
		return SignedIn{}, s.fail("login", err)
	}
	if !credential.VerifyPassword(in.Password, user.PasswordHash) {
		return SignedIn{}, ErrInvalidCredentials
	}
	return s.signIn(ctx, user.ID, in.Remember)
}

func (s *Service) signIn(ctx context.Context, userID string, remember bool) (SignedIn, error) {
	issued, err := s.sessions.Create(ctx, userID, remember)
	if err != nil {
		return SignedIn{}, s.fail("sign in", err)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return SignedIn{}, s.fail("sign in", err)
	}
	return SignedIn{User: *user, Session: issued}, nil
}

// Logout revokes the caller's current session. Logging out twice, or
// without a session, is not an error.
func (s *Service) Logout(ctx context.Context) error {
	p := identity.FromContext(ctx)
	if p.SessionToken() == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, p.SessionToken()); err != nil {
		return s.fail("logout", err)
	}
	return nil
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context) (model.User, error) {
	p, err := caller(ctx)
	if err != nil {
		return model.User{}, err
	}
	user, err := s.store.GetUserByID(ctx, p.UserID())
	if err != nil {
		return model.User{}, s.fail("me", err)
	}
	return *user, nil
}

// UpdateProfile changes the caller's name and, given the current password,
// their password. A password change ends every other session of the user.
func (s *Service) UpdateProfile(ctx context.Context, in ProfileInput) (model.User, error) {
	p, err := caller(ctx)
	if err != nil {
		return model.User{}, err
	}
	if in.Name != nil {
		if prob := checkLength("name", *in.Name, 0, MaxUserName); prob != "" {
			return model.User{}, invalid(prob)
		}
	}

	var newHash string
	if in.NewPassword != "" {
		if check := credential.ValidatePasswordStrength(in.NewPassword); !check.Valid {
			return model.User{}, &ValidationError{Problems: check.Problems}
		}
		newHash, err = credential.HashPassword(in.NewPassword)
		if errors.Is(err, credential.ErrPasswordTooLong) {
			return model.User{}, invalid(err.Error())
		}
		if err != nil {
			return model.User{}, s.fail("update profile", err)
		}
	}

	var updated model.User
	err = s.inTx(ctx, "update profile", func(q store.Queries) error {
		user, err := q.GetUserByID(ctx, p.UserID())
		if err != nil {
			return storeErr(err, "loading user")
		}
		if newHash != "" {
			if !credential.VerifyPassword(in.CurrentPassword, user.PasswordHash) {
				return invalid("current password is incorrect")
			}
			user.PasswordHash = newHash
		}
		if in.Name != nil {
			user.Name = strings.TrimSpace(*in.Name)
		}
		if err := q.UpdateUser(ctx, *user); err != nil {
			return storeErr(err, "updating user")
		}
		updated = *user
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	if newHash != "" {
		if err := s.sessions.RevokeAllForUser(ctx, p.UserID(), p.SessionToken()); err != nil {
			return model.User{}, s.fail("update profile", err)
		}
		s.logger.Info("password changed", "user", p.UserID())
	}
	return updated, nil
}

// DeleteUser removes another account and everything that cascades from it.
// Only administrators may, and never their own account.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	if !p.IsAdmin() || p.UserID() == userID {
		return ErrAccessDenied
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return s.fail("delete user", err)
	}
	// Sessions cascade in SQL; the redis backend needs an explicit sweep.
	if err := s.sessions.RevokeAllForUser(ctx, userID, ""); err != nil {
		return s.fail("delete user", err)
	}
	s.logger.Info("user deleted", "user", userID, "by", p.UserID())
	return nil
}
