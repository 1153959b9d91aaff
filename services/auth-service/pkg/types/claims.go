package types

import "github.com/golang-jwt/jwt/v5"

// PasswordResetTokenType is the value of the type claim carried by reset tokens.
const PasswordResetTokenType = "reset-password"

// JWTClaims represents the claims of an access token.
type JWTClaims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"admin"`
	jwt.RegisteredClaims
}

// PasswordResetClaims represents the claims of a password reset token.
// IssuedAtMillis has millisecond precision so it can be compared with user.updated_at.
type PasswordResetClaims struct {
	Type           string `json:"type"`
	Email          string `json:"email"`
	UserID         string `json:"userId"`
	IssuedAtMillis int64  `json:"issuedAt"`
	jwt.RegisteredClaims
}

// Tokens is returned by a successful login.
type Tokens struct {
	AccessToken string `json:"jwt"`
}
