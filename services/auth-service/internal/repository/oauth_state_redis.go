package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
)

const oauthStateKeyPrefix = "oauth:state"

type oauthStateRedisRepository struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewOAuthStateRedisRepository stores states as JSON values under keys that Redis expires itself.
func NewOAuthStateRedisRepository(client *redis.Client, ttl time.Duration) OAuthStateRepository {
	return &oauthStateRedisRepository{client: client, ttl: ttl, now: time.Now}
}

func oauthStateKey(provider, state string) string {
	return fmt.Sprintf("%s:%s:%s", oauthStateKeyPrefix, provider, state)
}

func (r *oauthStateRedisRepository) SaveState(ctx context.Context, state *model.OAuthState) error {
	if state.CreatedAt.IsZero() {
		state.CreatedAt = r.now()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	ok, err := r.client.SetNX(ctx, oauthStateKey(state.Provider, state.State), payload, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicateState
	}

	return nil
}

func (r *oauthStateRedisRepository) GetState(ctx context.Context, provider, state string) (*model.OAuthState, error) {
	payload, err := r.client.Get(ctx, oauthStateKey(provider, state)).Bytes()
	return r.decode(payload, err)
}

func (r *oauthStateRedisRepository) DeleteState(ctx context.Context, provider, state string) error {
	return r.client.Del(ctx, oauthStateKey(provider, state)).Err()
}

func (r *oauthStateRedisRepository) TakeState(ctx context.Context, provider, state string) (*model.OAuthState, error) {
	payload, err := r.client.GetDel(ctx, oauthStateKey(provider, state)).Bytes()
	return r.decode(payload, err)
}

// DeleteExpiredStates is a no-op: keys carry their own expiry.
func (r *oauthStateRedisRepository) DeleteExpiredStates(context.Context) (int64, error) {
	return 0, nil
}

func (r *oauthStateRedisRepository) decode(payload []byte, err error) (*model.OAuthState, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}

	var record model.OAuthState
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode oauth state: %w", err)
	}

	if record.Expired(r.now(), r.ttl) {
		return nil, ErrStateNotFound
	}

	return &record, nil
}
