package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/tracker/internal/credential"
	"github.com/nhle/tracker/internal/service"
)

const strongPassword = "Sup3r$ecret"

func TestSetupOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := service.RegisterInput{Email: "Admin@Example.com", Name: "Admin", Password: strongPassword}
	signed, err := f.svc.Setup(ctx, in)
	require.NoError(t, err)
	assert.True(t, signed.User.IsAdmin)
	assert.Equal(t, "admin@example.com", signed.User.Email)
	assert.NotEmpty(t, signed.Session.Token)

	in.Email = "second@example.com"
	_, err = f.svc.Setup(ctx, in)
	assert.ErrorIs(t, err, service.ErrConflict)

	reg, err := f.svc.Register(ctx, in)
	require.NoError(t, err)
	assert.False(t, reg.User.IsAdmin)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, service.RegisterInput{Email: "new@example.com", Password: "weak"})
	assert.Equal(t, []string{
		credential.ProblemTooShort,
		credential.ProblemNoUppercase,
		credential.ProblemNoDigit,
		credential.ProblemNoSpecial,
	}, problems(t, err))

	_, err = f.svc.Register(ctx, service.RegisterInput{Email: "not-an-email", Password: strongPassword})
	assert.Equal(t, []string{"email is not a valid address"}, problems(t, err))

	_, err = f.svc.Register(ctx, service.RegisterInput{Email: "dup@example.com", Password: strongPassword})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, service.RegisterInput{Email: "DUP@example.com", Password: strongPassword})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, service.RegisterInput{Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: "Wr0ng!pass"})
	_, unknownEmail := f.svc.Login(ctx, service.LoginInput{Email: "bob@example.com", Password: strongPassword})
	assert.ErrorIs(t, wrongPassword, service.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, service.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	short, err := f.svc.Login(ctx, service.LoginInput{Email: " ALICE@example.com ", Password: strongPassword})
	require.NoError(t, err)
	assert.False(t, short.Session.Persistent)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), short.Session.ExpiresAt)

	long, err := f.svc.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: strongPassword, Remember: true})
	require.NoError(t, err)
	assert.True(t, long.Session.Persistent)
	assert.Equal(t, f.clock.Now().Add(30*24*time.Hour), long.Session.ExpiresAt)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	signed, err := f.svc.Register(context.Background(), service.RegisterInput{Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)

	ctx := f.withToken(t, signed.Session.Token)
	me, err := f.svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, me.ID)

	require.NoError(t, f.svc.Logout(ctx))
	require.NoError(t, f.svc.Logout(ctx))

	_, err = f.svc.Me(f.withToken(t, signed.Session.Token))
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	assert.NoError(t, f.svc.Logout(context.Background()))
}

func TestPasswordChangeRevokesOtherSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Register(ctx, service.RegisterInput{Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)

	current := f.withToken(t, first.Session.Token)

	_, err = f.svc.UpdateProfile(current, service.ProfileInput{CurrentPassword: "nope", NewPassword: "N3w!password"})
	assert.Equal(t, []string{"current password is incorrect"}, problems(t, err))

	_, err = f.svc.UpdateProfile(current, service.ProfileInput{CurrentPassword: strongPassword, NewPassword: "short"})
	assert.Len(t, problems(t, err), 4)

	user, err := f.svc.UpdateProfile(current, service.ProfileInput{
		Name:            ptr("Alice"),
		CurrentPassword: strongPassword,
		NewPassword:     "N3w!password",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = f.svc.Me(f.withToken(t, second.Session.Token))
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	_, err = f.svc.Me(f.withToken(t, first.Session.Token))
	assert.NoError(t, err)

	_, err = f.svc.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: "N3w!password"})
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.svc.Setup(ctx, service.RegisterInput{Email: "admin@example.com", Password: strongPassword})
	require.NoError(t, err)
	alice, err := f.svc.Register(ctx, service.RegisterInput{Email: "alice@example.com", Password: strongPassword})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteUser(as(alice.User), admin.User.ID), service.ErrAccessDenied)
	assert.ErrorIs(t, f.svc.DeleteUser(as(admin.User), admin.User.ID), service.ErrAccessDenied)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, alice.User.ID), service.ErrNotAuthenticated)

	require.NoError(t, f.svc.DeleteUser(as(admin.User), alice.User.ID))
	assert.ErrorIs(t, f.svc.DeleteUser(as(admin.User), alice.User.ID), service.ErrNotFound)

	_, err = f.svc.Me(f.withToken(t, alice.Session.Token))
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}
