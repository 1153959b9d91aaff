package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/scanner-auth/shared/security"
)

// UserUsecase manages accounts on behalf of administrators.
type UserUsecase interface {
	ListUsers(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type CreateUserParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Org       string
	Group     string
	IsActive  bool
	IsAdmin   bool
}

// UpdateUserParams changes only the non-nil fields. Password is hashed before it is stored.
type UpdateUserParams struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Org       *string
	Group     *string
	IsActive  *bool
	IsAdmin   *bool
}

type userUsecase struct {
	userRepo     repository.UserRepository
	identityRepo repository.IdentityRepository
	sessionRepo  repository.SessionRepository
	logger       *zerolog.Logger
}

func NewUserUsecase(
	userRepo repository.UserRepository,
	identityRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	logger *zerolog.Logger,
) UserUsecase {
	return &userUsecase{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		sessionRepo:  sessionRepo,
		logger:       logger,
	}
}

func (u *userUsecase) ListUsers(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	users, err := u.userRepo.ListUsers(ctx, params)
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

func (u *userUsecase) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, id)
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func (u *userUsecase) CreateUser(ctx context.Context, params CreateUserParams) (*model.User, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        normalizeEmail(params.Email),
		PasswordHash: passwordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Org:          params.Org,
		Group:        params.Group,
		IsActive:     params.IsActive,
		IsAdmin:      params.IsAdmin,
	})
	if err != nil {
		return nil, userError(err)
	}

	if err := createEmailIdentity(ctx, u.userRepo, u.identityRepo, u.logger, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (u *userUsecase) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error) {
	update := repository.UpdateUserParams{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Org:       params.Org,
		Group:     params.Group,
		IsActive:  params.IsActive,
		IsAdmin:   params.IsAdmin,
	}

	if params.Email != nil {
		email := normalizeEmail(*params.Email)
		update.Email = &email
	}

	if params.Password != nil {
		passwordHash, err := security.HashPassword(*params.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &passwordHash
	}

	var previous *model.User
	if update.Email != nil {
		current, err := u.userRepo.GetUser(ctx, id)
		if err != nil {
			return nil, userError(err)
		}
		previous = current
	}

	user, err := u.userRepo.UpdateUser(ctx, id, update)
	if err != nil {
		return nil, userError(err)
	}

	if previous != nil && previous.Email != user.Email {
		if err := u.identityRepo.UpdateIdentityEmail(ctx, user.ID.Hex(), user.Email); err != nil {
			if _, rbErr := u.userRepo.UpdateUser(ctx, id, repository.UpdateUserParams{Email: &previous.Email}); rbErr != nil {
				u.logger.Error().Err(rbErr).Str("user_id", id).Msg("failed to restore email after identity update failure")
			}
			return nil, storageError(err)
		}
	}

	return user, nil
}

func (u *userUsecase) DeleteUser(ctx context.Context, id string) error {
	user, err := u.userRepo.DeleteUser(ctx, id)
	if err != nil {
		return userError(err)
	}

	if err := u.identityRepo.DeleteIdentitiesByUserID(ctx, user.ID.Hex()); err != nil {
		u.logger.Warn().Err(err).Str("user_id", id).Msg("failed to delete identities of removed user")
	}
	if _, err := u.sessionRepo.DeleteSessionsByUserID(ctx, user.ID.Hex()); err != nil {
		u.logger.Warn().Err(err).Str("user_id", id).Msg("failed to delete sessions of removed user")
	}

	return nil
}

// createEmailIdentity links a freshly inserted user to its password identity. If the identity
// cannot be stored the user is removed again so the email stays free for a retry.
func createEmailIdentity(
	ctx context.Context,
	userRepo repository.UserRepository,
	identityRepo repository.IdentityRepository,
	logger *zerolog.Logger,
	user *model.User,
) error {
	_, err := identityRepo.CreateIdentity(ctx, &model.Identity{
		UserID:   user.ID.Hex(),
		Provider: model.IdentityProviderEmail,
		Email:    user.Email,
	})
	if err == nil {
		return nil
	}

	if _, delErr := userRepo.DeleteUser(ctx, user.ID.Hex()); delErr != nil {
		logger.Error().Err(delErr).Str("user_id", user.ID.Hex()).Msg("failed to remove user after identity creation failure")
	}

	return storageError(err)
}

func userError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return ErrEmailAlreadyExists
	default:
		return storageError(err)
	}
}
