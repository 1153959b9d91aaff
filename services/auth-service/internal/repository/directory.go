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

// Document is implemented by pointers to directory entities.
type Document interface {
	SetID(id bson.ObjectID)
	Stamp(now time.Time, created bool)
	UpdateFields() bson.M
}

// EntityRepository is the CRUD contract shared by the directory collections.
// Names are unique per collection.
type EntityRepository[T any] interface {
	Create(ctx context.Context, entity *T) (*T, error)
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Update(ctx context.Context, id string, entity *T) (*T, error)
	Delete(ctx context.Context, id string) error
}

type (
	OrgRepository       = EntityRepository[model.Org]
	OrgTypeRepository   = EntityRepository[model.OrgType]
	GroupRepository     = EntityRepository[model.Group]
	PrivilegeRepository = EntityRepository[model.Privilege]
)

const (
	orgCollection       = "orgs"
	orgTypeCollection   = "org_types"
	groupCollection     = "groups"
	privilegeCollection = "privileges"
)

func NewOrgMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) OrgRepository {
	return newEntityMongoRepository[model.Org](ctx, logger, db, orgCollection)
}

func NewOrgTypeMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) OrgTypeRepository {
	return newEntityMongoRepository[model.OrgType](ctx, logger, db, orgTypeCollection)
}

func NewGroupMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) GroupRepository {
	return newEntityMongoRepository[model.Group](ctx, logger, db, groupCollection)
}

func NewPrivilegeMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) PrivilegeRepository {
	return newEntityMongoRepository[model.Privilege](ctx, logger, db, privilegeCollection)
}

type entityMongoRepository[T any, PT interface {
	*T
	Document
}] struct {
	collection *mongo.Collection
}

func newEntityMongoRepository[T any, PT interface {
	*T
	Document
}](ctx context.Context, logger *zerolog.Logger, db *mongo.Database, name string) EntityRepository[T] {
	collection := db.Collection(name)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Fatal().Err(err).Str("collection", name).Msg("failed to create indexes")
	}

	return &entityMongoRepository[T, PT]{collection: collection}
}

func (r *entityMongoRepository[T, PT]) Create(ctx context.Context, entity *T) (*T, error) {
	doc := PT(entity)
	doc.SetID(bson.NewObjectID())
	doc.Stamp(time.Now(), true)

	if _, err := r.collection.InsertOne(ctx, entity); err != nil {
		return nil, translateError(err)
	}

	return entity, nil
}

func (r *entityMongoRepository[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	entity := new(T)
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(entity); err != nil {
		return nil, translateError(err)
	}

	return entity, nil
}

func (r *entityMongoRepository[T, PT]) List(ctx context.Context) ([]*T, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entities := []*T{}
	for cursor.Next(ctx) {
		entity := new(T)
		if err := cursor.Decode(entity); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return entities, nil
}

func (r *entityMongoRepository[T, PT]) Update(ctx context.Context, id string, entity *T) (*T, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	doc := PT(entity)
	doc.Stamp(time.Now(), false)

	updated := new(T)
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": doc.UpdateFields()},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(updated)
	if err != nil {
		return nil, translateError(err)
	}

	return updated, nil
}

func (r *entityMongoRepository[T, PT]) Delete(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
