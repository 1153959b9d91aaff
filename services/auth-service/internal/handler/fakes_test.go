package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/scanner-auth/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/scanner-auth/shared/auth"
	"github.com/vasapolrittideah/scanner-auth/shared/provider"
	"github.com/vasapolrittideah/scanner-auth/shared/validation"
)

const (
	testAccessSecret = "access-secret-access-secret-0001"
	testSessionID    = "6650f0c2a1b2c3d4e5f60718"
)

type fakeOAuth struct {
	params   *usecase.OAuthParameters
	token    provider.TokenPayload
	err      error
	gotCode  string
	gotState string
}

func (f *fakeOAuth) GitLabParameters(context.Context) (*usecase.OAuthParameters, error) {
	return f.params, f.err
}

func (f *fakeOAuth) ExchangeGitLabCode(_ context.Context, code, state string) (provider.TokenPayload, error) {
	f.gotCode, f.gotState = code, state
	return f.token, f.err
}

func (f *fakeOAuth) ExchangeGitHubCode(_ context.Context, code string) (provider.TokenPayload, error) {
	f.gotCode = code
	return f.token, f.err
}

type fakeAuth struct {
	mu          sync.Mutex
	loginParams usecase.LoginParams
	user        *model.User
	err         error
	sessions    map[string]bool
}

func (f *fakeAuth) ValidateSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.sessions[sessionID] {
		return usecase.ErrSessionRevoked
	}
	return nil
}

func (f *fakeAuth) revoke(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
}

func (f *fakeAuth) Login(_ context.Context, params usecase.LoginParams) (*authtypes.Tokens, error) {
	f.loginParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &authtypes.Tokens{AccessToken: "signed-jwt"}, nil
}

func (f *fakeAuth) Register(_ context.Context, params usecase.RegisterParams) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakePasswordReset struct {
	result   *usecase.ResetRequestResult
	err      error
	gotToken string
	gotPass  string
}

func (f *fakePasswordReset) RequestPasswordReset(context.Context, string) (*usecase.ResetRequestResult, error) {
	return f.result, f.err
}

func (f *fakePasswordReset) ResetPassword(_ context.Context, token, newPassword string) error {
	f.gotToken, f.gotPass = token, newPassword
	return f.err
}

type fakeUsers struct {
	users   []*model.User
	listed  repository.FilterUsersParams
	updated usecase.UpdateUserParams
	err     error
	// onDelete runs after a successful delete, standing in for session cleanup.
	onDelete func(id string)
}

func (f *fakeUsers) ListUsers(_ context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	f.listed = params
	return f.users, f.err
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID.Hex() == id {
			return u, nil
		}
	}
	return nil, usecase.ErrUserNotFound
}

func (f *fakeUsers) CreateUser(_ context.Context, params usecase.CreateUserParams) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := &model.User{ID: bson.NewObjectID(), Email: params.Email, Org: params.Org}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUsers) UpdateUser(ctx context.Context, id string, params usecase.UpdateUserParams) (*model.User, error) {
	f.updated = params
	return f.GetUser(ctx, id)
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id string) error {
	if _, err := f.GetUser(ctx, id); err != nil {
		return err
	}
	if f.onDelete != nil {
		f.onDelete(id)
	}
	return nil
}

// memoryEntities is an in-memory directory collection keyed by hex id.
type memoryEntities[T any] struct {
	mu    sync.Mutex
	name  string
	items map[string]*T
	setID func(*T, bson.ObjectID)
}

func newMemoryEntities[T any](name string, setID func(*T, bson.ObjectID)) *memoryEntities[T] {
	return &memoryEntities[T]{name: name, items: map[string]*T{}, setID: setID}
}

func (m *memoryEntities[T]) List(context.Context) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*T, 0, len(m.items))
	for _, v := range m.items {
		out = append(out, v)
	}
	return out, nil
}

func (m *memoryEntities[T]) Get(_ context.Context, id string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return nil, usecaseNotFound(m.name)
	}
	return v, nil
}

func (m *memoryEntities[T]) Create(_ context.Context, entity *T) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := bson.NewObjectID()
	m.setID(entity, id)
	m.items[id.Hex()] = entity
	return entity, nil
}

func (m *memoryEntities[T]) Update(_ context.Context, id string, entity *T) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return nil, usecaseNotFound(m.name)
	}
	oid, _ := bson.ObjectIDFromHex(id)
	m.setID(entity, oid)
	m.items[id] = entity
	return entity, nil
}

func (m *memoryEntities[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return usecaseNotFound(m.name)
	}
	delete(m.items, id)
	return nil
}

func usecaseNotFound(name string) error {
	return &wrappedError{msg: name + " not found", err: usecase.ErrNotFound}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string { return e.msg }
func (e *wrappedError) Unwrap() error { return e.err }

type testServer struct {
	oauth   *fakeOAuth
	auth    *fakeAuth
	reset   *fakePasswordReset
	users   *fakeUsers
	orgs    *memoryEntities[model.Org]
	groups  *memoryEntities[model.Group]
	jwtAuth auth.JWTAuthenticator
	health  map[string]HealthCheck
	metrics *metrics.Metrics
	handler http.Handler
}

func newTestServer(t *testing.T, configure ...func(*RouterOptions)) *testServer {
	t.Helper()

	v, err := validation.New()
	require.NoError(t, err)

	logger := zerolog.Nop()
	s := &testServer{
		oauth:   &fakeOAuth{},
		auth:    &fakeAuth{sessions: map[string]bool{testSessionID: true}},
		reset:   &fakePasswordReset{},
		users:   &fakeUsers{},
		orgs:    newMemoryEntities("org", func(o *model.Org, id bson.ObjectID) { o.ID = id }),
		groups:  newMemoryEntities("group", func(g *model.Group, id bson.ObjectID) { g.ID = id }),
		jwtAuth: auth.NewJWTAuthenticator("scanner-console", "scanner-auth"),
		health:  map[string]HealthCheck{},
		metrics: metrics.NewMetrics(prometheus.NewRegistry()),
	}

	usecases := Usecases{
		Auth:          s.auth,
		OAuth:         s.oauth,
		PasswordReset: s.reset,
		User:          s.users,
		Org:           s.orgs,
		OrgType:       newMemoryEntities("orgtype", func(o *model.OrgType, id bson.ObjectID) { o.ID = id }),
		Group:         s.groups,
		Privilege:     newMemoryEntities("privilege", func(p *model.Privilege, id bson.ObjectID) { p.ID = id }),
	}
	opts := RouterOptions{
		AllowedOrigins:    []string{"https://scanner.example.com"},
		JWTAuth:           s.jwtAuth,
		AccessTokenSecret: testAccessSecret,
		HealthChecks:      s.health,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	s.handler = NewRouter(usecases, opts, v, s.metrics, &logger)

	return s
}

func (s *testServer) accessToken(t *testing.T) string {
	t.Helper()
	claims := authtypes.JWTClaims{
		UserID:           "user-1",
		SessionID:        testSessionID,
		Email:            "admin@example.com",
		IsAdmin:          true,
		RegisteredClaims: s.jwtAuth.RegisteredClaims("user-1", "", time.Now(), time.Hour),
	}
	token, err := s.jwtAuth.GenerateToken(claims, testAccessSecret)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}
