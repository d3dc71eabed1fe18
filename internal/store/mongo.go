package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/andrewwphillips/restaurantql/internal/model"
)

// MongoStore keeps restaurants in a single MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongo connects to the server at uri and makes sure the unique phone index exists.
func NewMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging mongo")
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: model.FieldPhone, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("phone_unique"),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "creating phone index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var r model.Restaurant
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "finding restaurant %s", id)
	}
	return &r, nil
}

func (s *MongoStore) FindByFilter(ctx context.Context, f Filter) ([]model.Restaurant, error) {
	filter := bson.M{}
	for k, v := range f {
		filter[k] = v
	}
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "finding restaurants")
	}
	r := []model.Restaurant{}
	if err := cursor.All(ctx, &r); err != nil {
		return nil, errors.Wrap(err, "decoding restaurants")
	}
	return r, nil
}

func (s *MongoStore) Insert(ctx context.Context, r *model.Restaurant) (string, error) {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		r.ID = primitive.NilObjectID
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateKey
		}
		return "", errors.Wrap(err, "inserting restaurant")
	}
	return r.ID.Hex(), nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil // can't match any document
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, errors.Wrapf(err, "deleting restaurant %s", id)
	}
	return res.DeletedCount == 1, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
