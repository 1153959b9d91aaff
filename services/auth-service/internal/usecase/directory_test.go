package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
)

type memoryPrivilegeRepo struct {
	mu    sync.Mutex
	items map[string]*model.Privilege
	err   error
}

func (m *memoryPrivilegeRepo) Create(_ context.Context, p *model.Privilege) (*model.Privilege, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Name == p.Name {
			return nil, repository.ErrDuplicateKey
		}
	}
	p.ID = bson.NewObjectID()
	m.items[p.ID.Hex()] = p
	return p, nil
}

func (m *memoryPrivilegeRepo) Get(_ context.Context, id string) (*model.Privilege, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *memoryPrivilegeRepo) List(context.Context) ([]*model.Privilege, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []*model.Privilege{}
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryPrivilegeRepo) Update(_ context.Context, id string, p *model.Privilege) (*model.Privilege, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return nil, repository.ErrNotFound
	}
	p.ID, _ = bson.ObjectIDFromHex(id)
	m.items[id] = p
	return p, nil
}

func (m *memoryPrivilegeRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func TestEntityUsecase(t *testing.T) {
	repo := &memoryPrivilegeRepo{items: map[string]*model.Privilege{}}
	u := NewEntityUsecase[model.Privilege]("privilege", repo)
	ctx := context.Background()

	created, err := u.Create(ctx, &model.Privilege{Name: "scan:run"})
	require.NoError(t, err)

	_, err = u.Create(ctx, &model.Privilege{Name: "scan:run"})
	require.ErrorIs(t, err, ErrDuplicateName)
	require.EqualError(t, err, "privilege name already exists")

	updated, err := u.Update(ctx, created.ID.Hex(), &model.Privilege{Name: "scan:schedule"})
	require.NoError(t, err)
	require.Equal(t, "scan:schedule", updated.Name)

	require.NoError(t, u.Delete(ctx, created.ID.Hex()))

	_, err = u.Get(ctx, created.ID.Hex())
	require.ErrorIs(t, err, ErrNotFound)
	require.EqualError(t, err, "privilege not found")

	repo.err = errStoreDown
	_, err = u.List(ctx)
	require.ErrorIs(t, err, ErrStorage)
}
