package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/config"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	authtypes "github.com/vasapolrittideah/scanner-auth/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/scanner-auth/shared/auth"
	"github.com/vasapolrittideah/scanner-auth/shared/mailer"
	"github.com/vasapolrittideah/scanner-auth/shared/security"
)

// PasswordResetUsecase defines the business logic for password reset operations.
type PasswordResetUsecase interface {
	// RequestPasswordReset mails a reset link to the user owning email.
	// An unknown email yields ErrUserNotFound.
	RequestPasswordReset(ctx context.Context, email string) (*ResetRequestResult, error)

	// ResetPassword replaces the password of the user named by the token.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// ResetRequestResult carries the link outside production and a generic message otherwise.
type ResetRequestResult struct {
	Link    string `json:"link,omitempty"`
	Message string `json:"message"`
}

const resetRequestConfirmation = "If the address is registered, a password reset link has been sent."

var resetEmailTemplate = template.Must(template.New("password-reset").Parse(`
	<p>Hi {{.FirstName}},</p>
	<p>We received a request to reset the password for your scanner console account.</p>
	<p>If you made this request, please click the link below to create a new password:</p>

	<p><a href="{{.Link}}">{{.Link}}</a></p>

	<p>This link will expire in {{.ExpiresIn}}.</p>
	<p>If you did not request a password reset, you can ignore this email.</p>
`))

type resetEmailData struct {
	FirstName string
	Link      string
	ExpiresIn string
}

type passwordResetUsecase struct {
	userRepo       repository.UserRepository
	tokens         resetTokenIssuer
	mailer         mailer.Sender
	authServiceCfg *config.AuthServiceConfig
	logger         *zerolog.Logger
	now            func() time.Time
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	jwtAuth auth.JWTAuthenticator,
	mailer mailer.Sender,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo: userRepo,
		tokens: resetTokenIssuer{
			jwtAuth:   jwtAuth,
			secret:    authServiceCfg.Token.PasswordResetTokenSecret,
			expiresIn: authServiceCfg.Token.PasswordResetTokenExpiresIn,
		},
		mailer:         mailer,
		authServiceCfg: authServiceCfg,
		logger:         logger,
		now:            time.Now,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) (*ResetRequestResult, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError(err)
	}

	tokenStr, err := u.tokens.issue(user.ID.Hex(), user.Email, u.now())
	if err != nil {
		return nil, err
	}

	resetLink := fmt.Sprintf("%s?token=%s", u.authServiceCfg.AppPasswordResetURL, url.QueryEscape(tokenStr))
	var body bytes.Buffer
	if err := resetEmailTemplate.Execute(&body, resetEmailData{
		FirstName: user.FirstName,
		Link:      resetLink,
		ExpiresIn: u.authServiceCfg.Token.PasswordResetTokenExpiresIn.String(),
	}); err != nil {
		return nil, fmt.Errorf("render password reset email: %w", err)
	}
	htmlBody := body.String()

	if err := u.mailer.SendHTML([]string{user.Email}, "Password Reset Request", htmlBody); err != nil {
		u.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send password reset email")
		return nil, fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}

	if u.authServiceCfg.IsProduction() {
		return &ResetRequestResult{Message: resetRequestConfirmation}, nil
	}

	return &ResetRequestResult{Link: resetLink, Message: resetRequestConfirmation}, nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := u.tokens.verify(token)
	if err != nil {
		return err
	}

	if claims.Type != authtypes.PasswordResetTokenType {
		return ErrWrongTokenType
	}

	user, err := u.userRepo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storageError(err)
	}

	if claims.IssuedAtMillis < user.UpdatedAt.UnixMilli() {
		return ErrStaleToken
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, claims.UserID, repository.UpdateUserParams{
		PasswordHash: &passwordHash,
	}); err != nil {
		return storageError(err)
	}

	u.logger.Info().Str("user_id", claims.UserID).Str("jti", claims.ID).Msg("password reset completed")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
