// Package store implements the persistence layer for restaurant documents.
//
// Two backends share the Store interface: MongoDB for deployments and an embedded
// BoltDB file for local development and tests.  Both assign ObjectID (hex) ids and
// both enforce a uniqueness constraint on the phone number.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/andrewwphillips/restaurantql/internal/config"
	"github.com/andrewwphillips/restaurantql/internal/model"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("restaurant not found")

	// ErrDuplicateKey is returned by Insert when the phone number is already stored.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Filter selects documents by exact equality of stored field values (see model.Field*).
type Filter map[string]string

// Store is the persistence accessor used by the resolver layer.
type Store interface {
	// FindByID returns ErrNotFound if the id is unknown or malformed.
	FindByID(ctx context.Context, id string) (*model.Restaurant, error)
	// FindByFilter returns an empty (non-nil) slice when nothing matches.
	FindByFilter(ctx context.Context, f Filter) ([]model.Restaurant, error)
	// Insert stores r, setting its ID and CreatedAt, and returns the new id.
	Insert(ctx context.Context, r *model.Restaurant) (string, error)
	// DeleteByID reports whether exactly one document was removed.
	DeleteByID(ctx context.Context, id string) (bool, error)
	Close(ctx context.Context) error
}

// Open creates the backend selected by the configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return NewMongo(ctx, cfg.MongoURL, cfg.Database, cfg.Collection)
	case config.DriverBolt:
		return NewBolt(cfg.BoltPath)
	}
	return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
}
