// Package pkce generates OAuth state values and RFC 7636 code verifier/challenge pairs.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	stateBytes    = 32
	verifierBytes = 64

	// MethodS256 is the only challenge method this package produces.
	MethodS256 = "S256"
)

// Pair holds a code verifier and the challenge derived from it.
// The verifier must never leave the server.
type Pair struct {
	CodeVerifier  string
	CodeChallenge string
}

// GenerateState returns an unguessable value used as the OAuth CSRF token.
func GenerateState() (string, error) {
	s, err := randomString(stateBytes)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return s, nil
}

// GenerateVerifier returns a code verifier of 86 characters from the unreserved alphabet.
func GenerateVerifier() (string, error) {
	s, err := randomString(verifierBytes)
	if err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	return s, nil
}

// Challenge derives the S256 code challenge: base64url(sha256(verifier)).
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewPair generates a fresh verifier together with its challenge.
func NewPair() (Pair, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return Pair{}, err
	}
	return Pair{CodeVerifier: verifier, CodeChallenge: Challenge(verifier)}, nil
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
