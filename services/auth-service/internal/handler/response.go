package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/scanner-auth/shared/security"
	"github.com/vasapolrittideah/scanner-auth/shared/validation"
)

// Error kinds of the response envelope.
const (
	kindValidation     = "validation"
	kindNotFound       = "not_found"
	kindConfiguration  = "configuration"
	kindUpstream       = "upstream"
	kindStorage        = "storage"
	kindAuthentication = "authentication"
	kindInternal       = "internal"
)

const (
	msgMissingCode        = "The authorization code is missing from the request body"
	msgInvalidOAuthState  = "Invalid or expired OAuth state"
	msgEmailAlreadyExists = "The given email address exist already!"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

var errMalformedBody = errors.New("request body is not valid JSON")

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind, message string, details any) {
	writeJSON(w, status, errorResponse{Kind: kind, Message: message, Details: details})
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errMalformedBody
	}
	return nil
}

// decodeAndValidate decodes dst and runs the struct validator over it.
func (h *authHTTPHandler) decodeAndValidate(r *http.Request, dst any) error {
	if err := decode(r, dst); err != nil {
		return err
	}
	return h.validator.Struct(dst)
}

// classify maps an error to its HTTP status and envelope.
func classify(err error) (int, errorResponse) {
	var validationErr *validation.Error
	var providerErr *usecase.ProviderError

	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, errorResponse{Kind: kindValidation, Message: err.Error()}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, errorResponse{
			Kind:    kindValidation,
			Message: "The request body is invalid",
			Details: validationErr.Fields,
		}
	case errors.Is(err, security.ErrEmptyPassword):
		return http.StatusBadRequest, errorResponse{Kind: kindValidation, Message: "Password must not be empty"}

	case errors.Is(err, usecase.ErrMissingCode):
		return http.StatusUnprocessableEntity, errorResponse{Kind: kindValidation, Message: msgMissingCode}
	case errors.Is(err, usecase.ErrInvalidOAuthState):
		return http.StatusBadRequest, errorResponse{Kind: kindNotFound, Message: msgInvalidOAuthState}
	case errors.As(err, &providerErr) && errors.Is(err, usecase.ErrProviderNotConfigured):
		return http.StatusFailedDependency, errorResponse{
			Kind:    kindConfiguration,
			Message: providerErr.Provider.DisplayName() + " authentication failed",
		}
	case errors.As(err, &providerErr):
		return http.StatusInternalServerError, errorResponse{
			Kind:    kindUpstream,
			Message: providerErr.Provider.DisplayName() + " token exchange failed",
			Details: providerErr.Payload,
		}

	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		return http.StatusBadRequest, errorResponse{Kind: kindValidation, Message: msgEmailAlreadyExists}
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusBadRequest, errorResponse{Kind: kindAuthentication, Message: "Invalid email or password"}
	case errors.Is(err, usecase.ErrInactiveAccount):
		return http.StatusBadRequest, errorResponse{Kind: kindAuthentication, Message: "The account is not active"}
	case errors.Is(err, usecase.ErrSessionRevoked):
		return http.StatusUnauthorized, errorResponse{Kind: kindAuthentication, Message: "The session is no longer valid"}
	case errors.Is(err, usecase.ErrAdminRequired):
		return http.StatusForbidden, errorResponse{Kind: kindAuthentication, Message: "Administrator privileges are required"}

	case errors.Is(err, usecase.ErrUserNotFound):
		return http.StatusBadRequest, errorResponse{Kind: kindNotFound, Message: "User not found"}
	case errors.Is(err, usecase.ErrInvalidToken):
		return http.StatusBadRequest, errorResponse{Kind: kindAuthentication, Message: "The password reset token is invalid or has expired"}
	case errors.Is(err, usecase.ErrWrongTokenType):
		return http.StatusBadRequest, errorResponse{Kind: kindAuthentication, Message: "The token is not a password reset token"}
	case errors.Is(err, usecase.ErrStaleToken):
		return http.StatusBadRequest, errorResponse{Kind: kindAuthentication, Message: "The password reset token is no longer valid"}
	case errors.Is(err, usecase.ErrMailDelivery):
		return http.StatusInternalServerError, errorResponse{Kind: kindUpstream, Message: "The email could not be sent"}

	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusBadRequest, errorResponse{Kind: kindNotFound, Message: err.Error()}
	case errors.Is(err, usecase.ErrDuplicateName):
		return http.StatusBadRequest, errorResponse{Kind: kindValidation, Message: err.Error()}

	case errors.Is(err, usecase.ErrStorage):
		return http.StatusInternalServerError, errorResponse{Kind: kindStorage, Message: "A storage error occurred"}
	default:
		return http.StatusInternalServerError, errorResponse{Kind: kindInternal, Message: "Internal server error"}
	}
}

// fail writes the envelope for err. Server side failures are logged with the cause.
func (h *authHTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, body)
}
