package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/config"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/scanner-auth/shared/auth"
)

var errStoreDown = errors.New("connection refused")

type memoryStateRepo struct {
	mu      sync.Mutex
	records map[string]model.OAuthState
	ttl     time.Duration
	now     func() time.Time
	err     error
}

func newMemoryStateRepo() *memoryStateRepo {
	return &memoryStateRepo{records: map[string]model.OAuthState{}, ttl: 600 * time.Second, now: time.Now}
}

func stateKey(provider, state string) string { return provider + ":" + state }

func (m *memoryStateRepo) SaveState(_ context.Context, state *model.OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	key := stateKey(state.Provider, state.State)
	if _, ok := m.records[key]; ok {
		return repository.ErrDuplicateState
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = m.now()
	}
	m.records[key] = *state
	return nil
}

func (m *memoryStateRepo) GetState(_ context.Context, provider, state string) (*model.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	record, ok := m.records[stateKey(provider, state)]
	if !ok || record.Expired(m.now(), m.ttl) {
		return nil, repository.ErrStateNotFound
	}
	return &record, nil
}

func (m *memoryStateRepo) DeleteState(_ context.Context, provider, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, stateKey(provider, state))
	return m.err
}

func (m *memoryStateRepo) TakeState(_ context.Context, provider, state string) (*model.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	key := stateKey(provider, state)
	record, ok := m.records[key]
	if !ok || record.Expired(m.now(), m.ttl) {
		return nil, repository.ErrStateNotFound
	}
	delete(m.records, key)
	return &record, nil
}

func (m *memoryStateRepo) DeleteExpiredStates(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, record := range m.records {
		if record.Expired(m.now(), m.ttl) {
			delete(m.records, key)
			n++
		}
	}
	return n, m.err
}

func (m *memoryStateRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*model.User
	err   error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[bson.ObjectID]*model.User{}}
}

func (m *memoryUserRepo) seed(user *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	copied := *user
	m.users[user.ID] = &copied
	return user
}

func (m *memoryUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return nil, repository.ErrDuplicateKey
		}
	}
	now := time.Now()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	copied := *user
	m.users[user.ID] = &copied
	return user, nil
}

func (m *memoryUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	user, ok := m.users[objectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memoryUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUserRepo) UpdateUser(_ context.Context, id string, params repository.UpdateUserParams) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	user, ok := m.users[objectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if params.Email != nil {
		for otherID, other := range m.users {
			if otherID != objectID && other.Email == *params.Email {
				return nil, repository.ErrDuplicateKey
			}
		}
		user.Email = *params.Email
	}
	if params.PasswordHash != nil {
		user.PasswordHash = *params.PasswordHash
	}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Org != nil {
		user.Org = *params.Org
	}
	if params.Group != nil {
		user.Group = *params.Group
	}
	if params.IsActive != nil {
		user.IsActive = *params.IsActive
	}
	if params.IsAdmin != nil {
		user.IsAdmin = *params.IsAdmin
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (m *memoryUserRepo) DeleteUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	user, ok := m.users[objectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.users, objectID)
	return user, nil
}

func (m *memoryUserRepo) ListUsers(context.Context, repository.FilterUsersParams) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	users := []*model.User{}
	for _, user := range m.users {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

type memoryIdentityRepo struct {
	mu          sync.Mutex
	identities  []model.Identity
	lastLoginOf []string
	createErr   error
	updateErr   error
}

// CreateIdentity enforces the (provider, provider_id, email) unique index.
func (m *memoryIdentityRepo) CreateIdentity(_ context.Context, identity *model.Identity) (*model.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, existing := range m.identities {
		if existing.Provider == identity.Provider &&
			existing.ProviderID == identity.ProviderID &&
			existing.Email == identity.Email {
			return nil, repository.ErrDuplicateKey
		}
	}
	identity.ID = bson.NewObjectID()
	m.identities = append(m.identities, *identity)
	return identity, nil
}

func (m *memoryIdentityRepo) UpdateIdentityEmail(_ context.Context, userID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.identities {
		if m.identities[i].UserID == userID && m.identities[i].Provider == model.IdentityProviderEmail {
			m.identities[i].Email = email
		}
	}
	return nil
}

func (m *memoryIdentityRepo) UpdateLastLogin(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLoginOf = append(m.lastLoginOf, userID)
	return nil
}

func (m *memoryIdentityRepo) DeleteIdentitiesByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.identities[:0]
	for _, identity := range m.identities {
		if identity.UserID != userID {
			kept = append(kept, identity)
		}
	}
	m.identities = kept
	return nil
}

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: map[string]model.Session{}}
}

func (m *memorySessionRepo) CreateSession(_ context.Context, session *model.Session) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID.IsZero() {
		session.ID = bson.NewObjectID()
	}
	session.CreatedAt = time.Now()
	m.sessions[session.ID.Hex()] = *session
	return session, nil
}

func (m *memorySessionRepo) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (m *memorySessionRepo) DeleteSessionsByUserID(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendHTML(to []string, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

func testConfig() *config.AuthServiceConfig {
	return &config.AuthServiceConfig{
		Environment:         "development",
		AppPasswordResetURL: "https://console.example.com/reset-password",
		Token: config.TokenConfig{
			Issuer:                      "scanner-auth",
			Audience:                    "scanner-console",
			AccessTokenSecret:           "access-secret-access-secret-0001",
			AccessTokenExpiresIn:        time.Hour,
			PasswordResetTokenSecret:    "reset-secret-reset-secret-000001",
			PasswordResetTokenExpiresIn: 30 * time.Minute,
		},
		GitLab: config.GitLabConfig{
			BaseURL:      "https://gitlab.example.com",
			ClientID:     "gitlab-client",
			ClientSecret: "gitlab-secret",
			RedirectURI:  "https://console.example.com/oauth/gitlab",
			Scopes:       []string{"read_user"},
		},
		GitHub: config.GitHubConfig{
			ClientID:     "github-client",
			ClientSecret: "github-secret",
			RedirectURI:  "https://console.example.com/oauth/github",
			AuthURL:      "https://github.com/login/oauth/authorize",
			TokenURL:     "https://github.com/login/oauth/access_token",
		},
	}
}

func testJWTAuth(cfg *config.AuthServiceConfig) auth.JWTAuthenticator {
	return auth.NewJWTAuthenticator(cfg.Token.Audience, cfg.Token.Issuer)
}
