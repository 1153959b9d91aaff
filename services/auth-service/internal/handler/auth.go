package handler

import (
	"net/http"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/usecase"
)

func (h *authHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	tokens, err := h.usecases.Auth.Login(r.Context(), usecase.LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		TargetUI:  req.TargetUI,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.fail(w, r, err)
		return
	}

	h.metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	writeJSON(w, http.StatusOK, payload.LoginResponse{JWT: tokens.AccessToken})
}

func (h *authHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.usecases.Auth.Register(r.Context(), usecase.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.CreatedResponse{ID: user.ID.Hex(), Text: "created"})
}
