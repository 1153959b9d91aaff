package handler

import (
	"net/http"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/payload"
)

const (
	resetStageRequest = "request"
	resetStageSubmit  = "submit"
)

func (h *authHTTPHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.usecases.PasswordReset.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.metrics.PasswordResets.WithLabelValues(resetStageRequest, metrics.OutcomeFailure).Inc()
		h.logger.Warn().Err(err).Msg("failed to request password reset")
		h.fail(w, r, err)
		return
	}

	h.metrics.PasswordResets.WithLabelValues(resetStageRequest, metrics.OutcomeSuccess).Inc()
	writeJSON(w, http.StatusOK, result)
}

func (h *authHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.usecases.PasswordReset.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.metrics.PasswordResets.WithLabelValues(resetStageSubmit, metrics.OutcomeFailure).Inc()
		h.logger.Warn().Err(err).Msg("failed to reset password")
		h.fail(w, r, err)
		return
	}

	h.metrics.PasswordResets.WithLabelValues(resetStageSubmit, metrics.OutcomeSuccess).Inc()
	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "Your password has been updated."})
}
