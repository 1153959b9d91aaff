package handler

import (
	"errors"
	"net/http"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/scanner-auth/shared/provider"
)

// Terminal states of an OAuth flow, used as metric labels.
const (
	oauthExchanged = "exchanged"
	oauthExpired   = "expired"
	oauthFailed    = "failed"
)

func (h *authHTTPHandler) GitLabParameters(w http.ResponseWriter, r *http.Request) {
	params, err := h.usecases.OAuth.GitLabParameters(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.metrics.OAuthParametersIssued.WithLabelValues(string(provider.GitLab)).Inc()
	writeJSON(w, http.StatusOK, params)
}

func (h *authHTTPHandler) GitLabOAuth(w http.ResponseWriter, r *http.Request) {
	var req payload.OAuthCallbackRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.usecases.OAuth.ExchangeGitLabCode(r.Context(), req.Code, req.State)
	h.recordExchange(provider.GitLab, err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// GitHubOAuth exchanges a code without state or PKCE checks.
func (h *authHTTPHandler) GitHubOAuth(w http.ResponseWriter, r *http.Request) {
	var req payload.OAuthCallbackRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.usecases.OAuth.ExchangeGitHubCode(r.Context(), req.Code)
	h.recordExchange(provider.GitHub, err)
	if err != nil {
		if errors.Is(err, usecase.ErrMissingCode) {
			writeError(w, http.StatusBadRequest, kindValidation, msgMissingCode, nil)
			return
		}
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": token.AccessToken()})
}

func (h *authHTTPHandler) recordExchange(name provider.Name, err error) {
	result := oauthExchanged
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrInvalidOAuthState):
		result = oauthExpired
	default:
		result = oauthFailed
	}
	h.metrics.OAuthExchanges.WithLabelValues(string(name), result).Inc()
}
