package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/usecase"
)

func (h *authHTTPHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := repository.FilterUsersParams{}

	if org := query.Get("org"); org != "" {
		params.Org = &org
	}
	if active, err := strconv.ParseBool(query.Get("isactive")); err == nil {
		params.IsActive = &active
	}
	if limit, err := strconv.ParseUint(query.Get("limit"), 10, 64); err == nil {
		params.Limit = limit
	}
	if offset, err := strconv.ParseUint(query.Get("offset"), 10, 64); err == nil {
		params.Offset = offset
	}

	users, err := h.usecases.User.ListUsers(r.Context(), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *authHTTPHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.usecases.User.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *authHTTPHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req payload.CreateUserRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.usecases.User.CreateUser(r.Context(), usecase.CreateUserParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Org:       req.Org,
		Group:     req.Group,
		IsActive:  req.IsActive,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *authHTTPHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateUserRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.usecases.User.UpdateUser(r.Context(), chi.URLParam(r, "id"), usecase.UpdateUserParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Org:       req.Org,
		Group:     req.Group,
		IsActive:  req.IsActive,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *authHTTPHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.usecases.User.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "deleted"})
}
