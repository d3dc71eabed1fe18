package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/andrewwphillips/restaurantql/internal/model"
)

var (
	restaurantBucket = []byte("restaurants")
	phoneBucket      = []byte("restaurants_phone") // phone -> id, enforces uniqueness
)

// BoltStore keeps restaurants in an embedded BoltDB file.  Documents are stored as JSON
// keyed by the hex ObjectID, so iteration order is creation order.
type BoltStore struct {
	db *bolt.DB
}

// NewBolt opens (or creates) the database file at path and its buckets.
func NewBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening bolt file %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{restaurantBucket, phoneBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var r model.Restaurant
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(restaurantBucket).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *BoltStore) FindByFilter(ctx context.Context, f Filter) ([]model.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := []model.Restaurant{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(restaurantBucket).ForEach(func(k, v []byte) error {
			var doc model.Restaurant
			if err := json.Unmarshal(v, &doc); err != nil {
				return errors.Wrapf(err, "decoding restaurant %s", k)
			}
			if matches(&doc, f) {
				r = append(r, doc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// matches reports whether every filter entry equals the corresponding document field.
// An unknown field name never matches, as with a document store query.
func matches(r *model.Restaurant, f Filter) bool {
	for name, want := range f {
		if got, ok := r.Field(name); !ok || got != want {
			return false
		}
	}
	return true
}

func (s *BoltStore) Insert(ctx context.Context, r *model.Restaurant) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc := *r
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now().UTC()
	data, err := json.Marshal(&doc)
	if err != nil {
		return "", err
	}
	id := doc.ID.Hex()

	err = s.db.Update(func(tx *bolt.Tx) error {
		phones := tx.Bucket(phoneBucket)
		if phones.Get([]byte(doc.Phone)) != nil {
			return ErrDuplicateKey
		}
		if err := phones.Put([]byte(doc.Phone), []byte(id)); err != nil {
			return err
		}
		return tx.Bucket(restaurantBucket).Put([]byte(id), data)
	})
	if err != nil {
		return "", err
	}
	*r = doc
	return id, nil
}

func (s *BoltStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	deleted := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(restaurantBucket)
		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}
		var doc model.Restaurant
		if err := json.Unmarshal(v, &doc); err != nil {
			return errors.Wrapf(err, "decoding restaurant %s", id)
		}
		if err := tx.Bucket(phoneBucket).Delete([]byte(doc.Phone)); err != nil {
			return err
		}
		deleted = true
		return b.Delete([]byte(id))
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close(context.Context) error {
	return s.db.Close()
}
