package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/config"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/scanner-auth/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/scanner-auth/shared/auth"
	"github.com/vasapolrittideah/scanner-auth/shared/security"
)

// TargetUIAdmin is the console that only administrators may sign in to.
const TargetUIAdmin = "admin"

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Login(ctx context.Context, params LoginParams) (*authtypes.Tokens, error)
	Register(ctx context.Context, params RegisterParams) (*model.User, error)

	// ValidateSession confirms that the session behind an access token still exists, has not
	// expired and belongs to an active user. Any other outcome is ErrSessionRevoked.
	ValidateSession(ctx context.Context, sessionID string) error
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email     string
	Password  string
	TargetUI  string
	IPAddress string
	UserAgent string
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type authUsecase struct {
	identityRepo   repository.IdentityRepository
	sessionRepo    repository.SessionRepository
	userRepo       repository.UserRepository
	jwtAuth        auth.JWTAuthenticator
	authServiceCfg *config.AuthServiceConfig
	logger         *zerolog.Logger
	now            func() time.Time
}

func NewAuthUsecase(
	identityRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	jwtAuth auth.JWTAuthenticator,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		identityRepo:   identityRepo,
		sessionRepo:    sessionRepo,
		userRepo:       userRepo,
		jwtAuth:        jwtAuth,
		authServiceCfg: authServiceCfg,
		logger:         logger,
		now:            time.Now,
	}
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*authtypes.Tokens, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, storageError(err)
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	if params.TargetUI == TargetUIAdmin && !user.IsAdmin {
		return nil, ErrAdminRequired
	}

	if err := u.identityRepo.UpdateLastLogin(ctx, user.ID.Hex()); err != nil {
		u.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to record last login")
	}

	return u.createAuthSession(ctx, user, params)
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        normalizeEmail(params.Email),
		PasswordHash: passwordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		IsActive:     u.authServiceCfg.AutoActivateUsers,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrEmailAlreadyExists
		}

		return nil, storageError(err)
	}

	if err := createEmailIdentity(ctx, u.userRepo, u.identityRepo, u.logger, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (u *authUsecase) createAuthSession(
	ctx context.Context,
	user *model.User,
	params LoginParams,
) (*authtypes.Tokens, error) {
	now := u.now()
	expiresIn := u.authServiceCfg.Token.AccessTokenExpiresIn

	session := &model.Session{
		ID:        bson.NewObjectID(),
		UserID:    user.ID.Hex(),
		TargetUI:  params.TargetUI,
		ExpiresAt: now.Add(expiresIn),
	}
	if params.IPAddress != "" {
		session.IPAddress = &params.IPAddress
	}
	if params.UserAgent != "" {
		session.UserAgent = &params.UserAgent
	}

	if _, err := u.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, storageError(err)
	}

	claims := authtypes.JWTClaims{
		UserID:           user.ID.Hex(),
		SessionID:        session.ID.Hex(),
		Email:            user.Email,
		IsAdmin:          user.IsAdmin,
		RegisteredClaims: u.jwtAuth.RegisteredClaims(user.ID.Hex(), "", now, expiresIn),
	}

	accessToken, err := u.jwtAuth.GenerateToken(claims, u.authServiceCfg.Token.AccessTokenSecret)
	if err != nil {
		return nil, err
	}

	return &authtypes.Tokens{AccessToken: accessToken}, nil
}

func (u *authUsecase) ValidateSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRevoked
	}

	session, err := u.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionRevoked
		}
		return storageError(err)
	}

	if !session.ExpiresAt.After(u.now()) {
		return ErrSessionRevoked
	}

	user, err := u.userRepo.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionRevoked
		}
		return storageError(err)
	}

	if !user.IsActive {
		return ErrSessionRevoked
	}

	return nil
}
