package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
)

// EntityUsecase exposes CRUD over one directory collection.
type EntityUsecase[T any] interface {
	List(ctx context.Context) ([]*T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, id string, entity *T) (*T, error)
	Delete(ctx context.Context, id string) error
}

type (
	OrgUsecase       = EntityUsecase[model.Org]
	OrgTypeUsecase   = EntityUsecase[model.OrgType]
	GroupUsecase     = EntityUsecase[model.Group]
	PrivilegeUsecase = EntityUsecase[model.Privilege]
)

type entityUsecase[T any] struct {
	name string
	repo repository.EntityRepository[T]
}

// NewEntityUsecase wraps repo; name prefixes error messages, e.g. "org not found".
func NewEntityUsecase[T any](name string, repo repository.EntityRepository[T]) EntityUsecase[T] {
	return &entityUsecase[T]{name: name, repo: repo}
}

func (u *entityUsecase[T]) List(ctx context.Context) ([]*T, error) {
	entities, err := u.repo.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return entities, nil
}

func (u *entityUsecase[T]) Get(ctx context.Context, id string) (*T, error) {
	entity, err := u.repo.Get(ctx, id)
	if err != nil {
		return nil, u.wrap(err)
	}
	return entity, nil
}

func (u *entityUsecase[T]) Create(ctx context.Context, entity *T) (*T, error) {
	created, err := u.repo.Create(ctx, entity)
	if err != nil {
		return nil, u.wrap(err)
	}
	return created, nil
}

func (u *entityUsecase[T]) Update(ctx context.Context, id string, entity *T) (*T, error) {
	updated, err := u.repo.Update(ctx, id, entity)
	if err != nil {
		return nil, u.wrap(err)
	}
	return updated, nil
}

func (u *entityUsecase[T]) Delete(ctx context.Context, id string) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return u.wrap(err)
	}
	return nil
}

func (u *entityUsecase[T]) wrap(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s %w", u.name, ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateKey):
		return fmt.Errorf("%s %w", u.name, ErrDuplicateName)
	default:
		return storageError(err)
	}
}
