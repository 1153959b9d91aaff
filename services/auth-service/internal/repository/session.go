package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
)

// SessionRepository defines the interface for session-related database operations.
type SessionRepository interface {
	// CreateSession stores the session. A zero ID is replaced by a fresh ObjectID.
	CreateSession(ctx context.Context, session *model.Session) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error)
}

const sessionCollection = "sessions"

type sessionMongoRepository struct {
	db *mongo.Database
}

func NewSessionMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) SessionRepository {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	if _, err := db.Collection(sessionCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create session indexes")
	}

	return &sessionMongoRepository{db: db}
}

func (r *sessionMongoRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	if session.ID.IsZero() {
		session.ID = bson.NewObjectID()
	}
	session.CreatedAt = time.Now()

	if _, err := r.db.Collection(sessionCollection).InsertOne(ctx, session); err != nil {
		return nil, translateError(err)
	}

	return session, nil
}

func (r *sessionMongoRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := r.db.Collection(sessionCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&session); err != nil {
		return nil, translateError(err)
	}

	return &session, nil
}

func (r *sessionMongoRepository) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
