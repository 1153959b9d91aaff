package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
)

// OAuthStateRepository stores pending OAuth authorization requests for a fixed TTL.
// Records older than the TTL are reported as ErrStateNotFound even before they are purged.
type OAuthStateRepository interface {
	// SaveState inserts the record, failing with ErrDuplicateState if (provider, state) is live.
	SaveState(ctx context.Context, state *model.OAuthState) error

	GetState(ctx context.Context, provider, state string) (*model.OAuthState, error)

	// DeleteState removes the record. Deleting a missing record is not an error.
	DeleteState(ctx context.Context, provider, state string) error

	// TakeState atomically reads and deletes the record. Of concurrent callers with the
	// same state exactly one receives it; the rest get ErrStateNotFound.
	TakeState(ctx context.Context, provider, state string) (*model.OAuthState, error)

	// DeleteExpiredStates purges records past their TTL and returns how many were removed.
	DeleteExpiredStates(ctx context.Context) (int64, error)
}

const oauthStateCollection = "oauth_states"

type oauthStateMongoRepository struct {
	collection *mongo.Collection
	ttl        time.Duration
	now        func() time.Time
}

// NewOAuthStateMongoRepository creates the state store and its indexes. The TTL index lets
// the server purge records on its own; the reaper and read filters cover the monitor's lag.
func NewOAuthStateMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	ttl time.Duration,
) OAuthStateRepository {
	collection := db.Collection(oauthStateCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())), // TTL index
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create oauth state indexes")
	}

	return &oauthStateMongoRepository{collection: collection, ttl: ttl, now: time.Now}
}

func (r *oauthStateMongoRepository) SaveState(ctx context.Context, state *model.OAuthState) error {
	if state.CreatedAt.IsZero() {
		state.CreatedAt = r.now()
	}

	if _, err := r.collection.InsertOne(ctx, state); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateState
		}
		return err
	}

	return nil
}

func (r *oauthStateMongoRepository) liveFilter(provider, state string) bson.M {
	return bson.M{
		"provider":   provider,
		"state":      state,
		"created_at": bson.M{"$gt": r.now().Add(-r.ttl)},
	}
}

func (r *oauthStateMongoRepository) GetState(ctx context.Context, provider, state string) (*model.OAuthState, error) {
	var record model.OAuthState
	if err := r.collection.FindOne(ctx, r.liveFilter(provider, state)).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}

	return &record, nil
}

func (r *oauthStateMongoRepository) DeleteState(ctx context.Context, provider, state string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"provider": provider, "state": state})
	return err
}

func (r *oauthStateMongoRepository) TakeState(ctx context.Context, provider, state string) (*model.OAuthState, error) {
	var record model.OAuthState
	if err := r.collection.FindOneAndDelete(ctx, r.liveFilter(provider, state)).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStateNotFound
		}
		return nil, err
	}

	return &record, nil
}

func (r *oauthStateMongoRepository) DeleteExpiredStates(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"created_at": bson.M{"$lte": r.now().Add(-r.ttl)},
	})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
