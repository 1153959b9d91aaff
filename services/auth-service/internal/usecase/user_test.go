package usecase

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/scanner-auth/shared/security"
)

func TestUserUsecase(t *testing.T) {
	logger := zerolog.Nop()
	users := newMemoryUserRepo()
	identities := &memoryIdentityRepo{}
	sessions := newMemorySessionRepo()
	u := NewUserUsecase(users, identities, sessions, &logger)
	ctx := context.Background()

	created, err := u.CreateUser(ctx, CreateUserParams{
		Email:    "Lead@Example.com",
		Password: "password-1",
		Org:      "acme",
		Group:    "red-team",
		IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, "lead@example.com", created.Email)
	require.Len(t, identities.identities, 1)

	_, err = u.CreateUser(ctx, CreateUserParams{Email: "lead@example.com", Password: "password-1"})
	require.ErrorIs(t, err, ErrEmailAlreadyExists)

	newPassword := "password-2"
	admin := true
	updated, err := u.UpdateUser(ctx, created.ID.Hex(), UpdateUserParams{Password: &newPassword, IsAdmin: &admin})
	require.NoError(t, err)
	require.True(t, updated.IsAdmin)
	ok, err := security.VerifyPassword("password-2", updated.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	list, err := u.ListUsers(ctx, repository.FilterUsersParams{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = sessions.CreateSession(ctx, &model.Session{UserID: created.ID.Hex()})
	require.NoError(t, err)

	require.NoError(t, u.DeleteUser(ctx, created.ID.Hex()))
	require.Empty(t, identities.identities)
	require.Empty(t, sessions.sessions)

	_, err = u.GetUser(ctx, created.ID.Hex())
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, u.DeleteUser(ctx, "not-an-id"), ErrUserNotFound)
}

func TestUserUsecase_CreateUserIdentityFailure(t *testing.T) {
	logger := zerolog.Nop()
	users := newMemoryUserRepo()
	identities := &memoryIdentityRepo{createErr: errStoreDown}
	u := NewUserUsecase(users, identities, newMemorySessionRepo(), &logger)
	ctx := context.Background()

	_, err := u.CreateUser(ctx, CreateUserParams{Email: "lead@example.com", Password: "password-1"})
	require.ErrorIs(t, err, ErrStorage)
	require.Empty(t, users.users)

	identities.createErr = nil
	_, err = u.CreateUser(ctx, CreateUserParams{Email: "lead@example.com", Password: "password-1"})
	require.NoError(t, err)
}

func TestUserUsecase_EmailChangeFreesOldAddress(t *testing.T) {
	logger := zerolog.Nop()
	users := newMemoryUserRepo()
	identities := &memoryIdentityRepo{}
	sessions := newMemorySessionRepo()
	u := NewUserUsecase(users, identities, sessions, &logger)
	cfg := testConfig()
	registration := NewAuthUsecase(identities, sessions, users, testJWTAuth(cfg), cfg, &logger)
	ctx := context.Background()

	created, err := u.CreateUser(ctx, CreateUserParams{Email: "old@example.com", Password: "password-1"})
	require.NoError(t, err)

	newEmail := "New@Example.com"
	_, err = u.UpdateUser(ctx, created.ID.Hex(), UpdateUserParams{Email: &newEmail})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", identities.identities[0].Email)

	other, err := registration.Register(ctx, RegisterParams{Email: "old@example.com", Password: "password-2"})
	require.NoError(t, err)
	require.NotEqual(t, created.ID, other.ID)
	require.Len(t, identities.identities, 2)
}

func TestUserUsecase_EmailChangeRestoredOnIdentityFailure(t *testing.T) {
	logger := zerolog.Nop()
	users := newMemoryUserRepo()
	identities := &memoryIdentityRepo{}
	u := NewUserUsecase(users, identities, newMemorySessionRepo(), &logger)
	ctx := context.Background()

	created, err := u.CreateUser(ctx, CreateUserParams{Email: "old@example.com", Password: "password-1"})
	require.NoError(t, err)

	identities.updateErr = errStoreDown
	newEmail := "new@example.com"
	_, err = u.UpdateUser(ctx, created.ID.Hex(), UpdateUserParams{Email: &newEmail})
	require.ErrorIs(t, err, ErrStorage)

	stored, err := u.GetUser(ctx, created.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, "old@example.com", stored.Email)
	require.Equal(t, "old@example.com", identities.identities[0].Email)
}
