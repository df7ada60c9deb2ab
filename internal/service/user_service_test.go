package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-rental/internal/domain"
)

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, " Lauren Olamina ", " Lauren@Acorn.org ", "earthseed")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Lauren Olamina", user.Name)
	assert.Equal(t, "lauren@acorn.org", user.Email)
	assert.Empty(t, user.PasswordHash, "hash never leaves the service")

	got, err := f.users.Authenticate(ctx, "LAUREN@acorn.org", "earthseed")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	byID, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lauren Olamina", byID.Name)
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tc := range []struct{ name, email, password string }{
		{"", "a@b.c", "pw"},
		{"A", "", "pw"},
		{"A", "a@b.c", ""},
		{"A", "not-an-email", "pw"},
	} {
		_, err := f.users.Register(ctx, tc.name, tc.email, tc.password)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", tc)
	}

	_, err := f.users.Register(ctx, "A", "dup@example.com", "pw")
	require.NoError(t, err)
	_, err = f.users.Register(ctx, "B", "DUP@example.com", "pw")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserService_AuthenticateFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.users.Register(ctx, "A", "a@example.com", "right")
	require.NoError(t, err)

	_, err = f.users.Authenticate(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidLogin)
	_, err = f.users.Authenticate(ctx, "nobody@example.com", "right")
	assert.ErrorIs(t, err, domain.ErrInvalidLogin)
	_, err = f.users.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidLogin)
}
