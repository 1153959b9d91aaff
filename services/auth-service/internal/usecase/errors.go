package usecase

import (
	"errors"
	"fmt"

	"github.com/vasapolrittideah/scanner-auth/shared/provider"
)

var (
	// ErrStorage wraps document store and cache failures.
	ErrStorage = errors.New("storage failure")

	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("name already exists")

	ErrMissingCode           = errors.New("authorization code is missing")
	ErrInvalidOAuthState     = errors.New("invalid or expired oauth state")
	ErrProviderNotConfigured = errors.New("oauth provider is not configured")
	ErrTokenExchange         = errors.New("oauth token exchange failed")

	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidToken   = errors.New("invalid or expired password reset token")
	ErrWrongTokenType = errors.New("token is not a password reset token")
	ErrStaleToken     = errors.New("password reset token predates the latest account change")
	ErrMailDelivery   = errors.New("failed to deliver email")

	ErrEmailAlreadyExists = errors.New("email address already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is not active")
	ErrAdminRequired      = errors.New("administrator privileges required")
	ErrSessionRevoked     = errors.New("session is no longer valid")
)

// ProviderError reports a failed OAuth step together with what the provider answered.
type ProviderError struct {
	Provider provider.Name
	Payload  map[string]any
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
