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

// IdentityRepository defines the interface for identity-related database operations.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity *model.Identity) (*model.Identity, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	// UpdateIdentityEmail rewrites the email of the user's password identity.
	UpdateIdentityEmail(ctx context.Context, userID, email string) error
	DeleteIdentitiesByUserID(ctx context.Context, userID string) error
}

const identityCollection = "identities"

type identityMongoRepository struct {
	db *mongo.Database
}

func NewIdentityMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) IdentityRepository {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "provider_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := db.Collection(identityCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Msg("failed to create identity indexes")
	}

	return &identityMongoRepository{db: db}
}

func (r *identityMongoRepository) CreateIdentity(
	ctx context.Context,
	identity *model.Identity,
) (*model.Identity, error) {
	now := time.Now()
	identity.CreatedAt = now
	identity.UpdatedAt = now

	result, err := r.db.Collection(identityCollection).InsertOne(ctx, identity)
	if err != nil {
		return nil, translateError(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		identity.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return identity, nil
}

func (r *identityMongoRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	now := time.Now()
	_, err := r.db.Collection(identityCollection).UpdateMany(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"last_login_at": now, "updated_at": now}},
	)
	return err
}

func (r *identityMongoRepository) UpdateIdentityEmail(ctx context.Context, userID, email string) error {
	_, err := r.db.Collection(identityCollection).UpdateMany(
		ctx,
		bson.M{"user_id": userID, "provider": model.IdentityProviderEmail},
		bson.M{"$set": bson.M{"email": email, "updated_at": time.Now()}},
	)
	return translateError(err)
}

func (r *identityMongoRepository) DeleteIdentitiesByUserID(ctx context.Context, userID string) error {
	_, err := r.db.Collection(identityCollection).DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
