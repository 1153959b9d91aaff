package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/usecase"
)

// entityRoutes mounts list/create/read/update/delete for one directory collection.
// toModel decodes and validates the request body into the entity.
func entityRoutes[T any](
	h *authHTTPHandler,
	uc usecase.EntityUsecase[T],
	toModel func(h *authHTTPHandler, r *http.Request) (*T, error),
) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			entities, err := uc.List(r.Context())
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, entities)
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			entity, err := toModel(h, r)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			created, err := uc.Create(r.Context(), entity)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			entity, err := uc.Get(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, entity)
		})

		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			entity, err := toModel(h, r)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			updated, err := uc.Update(r.Context(), chi.URLParam(r, "id"), entity)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			if err := uc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
				h.fail(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "deleted"})
		})
	}
}

func orgFromRequest(h *authHTTPHandler, r *http.Request) (*model.Org, error) {
	var req payload.OrgRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		return nil, err
	}
	return &model.Org{Name: req.Name, OrgType: req.OrgType, Description: req.Description, IsActive: req.IsActive}, nil
}

func orgTypeFromRequest(h *authHTTPHandler, r *http.Request) (*model.OrgType, error) {
	var req payload.OrgTypeRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		return nil, err
	}
	return &model.OrgType{Name: req.Name, Description: req.Description}, nil
}

func groupFromRequest(h *authHTTPHandler, r *http.Request) (*model.Group, error) {
	var req payload.GroupRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		return nil, err
	}
	privileges := req.Privileges
	if privileges == nil {
		privileges = []string{}
	}
	return &model.Group{Name: req.Name, Org: req.Org, Privileges: privileges}, nil
}

func privilegeFromRequest(h *authHTTPHandler, r *http.Request) (*model.Privilege, error) {
	var req payload.PrivilegeRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		return nil, err
	}
	return &model.Privilege{Name: req.Name, Description: req.Description}, nil
}
