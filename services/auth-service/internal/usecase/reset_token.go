package usecase

import (
	"time"

	"github.com/google/uuid"

	authtypes "github.com/vasapolrittideah/scanner-auth/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/scanner-auth/shared/auth"
)

// resetTokenIssuer signs self-contained password reset tokens. Nothing is persisted;
// the signature, the expiry and the issuedAt/updated_at comparison are the only revocation.
type resetTokenIssuer struct {
	jwtAuth   auth.JWTAuthenticator
	secret    string
	expiresIn time.Duration
}

func (i *resetTokenIssuer) issue(userID, email string, now time.Time) (string, error) {
	claims := authtypes.PasswordResetClaims{
		Type:             authtypes.PasswordResetTokenType,
		Email:            email,
		UserID:           userID,
		IssuedAtMillis:   now.UnixMilli(),
		RegisteredClaims: i.jwtAuth.RegisteredClaims(userID, uuid.NewString(), now, i.expiresIn),
	}

	return i.jwtAuth.GenerateToken(claims, i.secret)
}

func (i *resetTokenIssuer) verify(token string) (*authtypes.PasswordResetClaims, error) {
	var claims authtypes.PasswordResetClaims
	if _, err := i.jwtAuth.ValidateTokenWithClaims(token, i.secret, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
