package restaurantql

// run.go provides the New and MustNew functions for creating the GraphQL http handler

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/andrewwphillips/restaurantql/internal/handler"
	"github.com/andrewwphillips/restaurantql/internal/restaurant"
	"github.com/andrewwphillips/restaurantql/internal/schema"
)

// Restaurants is the set of operations behind the GraphQL API (see restaurant.Service)
type Restaurants interface {
	GetRestaurant(ctx context.Context, id string, enrich bool) (*restaurant.View, error)
	GetRestaurants(ctx context.Context, city string, enrich bool) ([]*restaurant.View, error)
	AddRestaurant(ctx context.Context, in restaurant.Input, enrich bool) (*restaurant.View, error)
	DeleteRestaurant(ctx context.Context, id string) (bool, error)
}

// New creates an http handler that handles GraphQL requests using svc for all operations.
// The returned handler includes the request id, access log, metrics, auth and timeout middleware.
func New(svc Restaurants, opts ...Option) (http.Handler, error) {
	opt := &options{}
	for _, option := range opts {
		option(opt)
	}
	if opt.logger == nil {
		opt.logger = zap.NewNop()
	}

	s, err := schema.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading schema")
	}
	r := resolvers{svc: svc, authRequired: opt.authSecret != "", logger: opt.logger}
	h, err := handler.New(s, r.table(),
		handler.NoIntrospection(opt.noIntrospection),
		handler.NoConcurrency(opt.noConcurrency),
		handler.MaxBodyBytes(opt.maxBodyBytes),
		handler.Logger(opt.logger.Named("graphql")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating GraphQL handler")
	}

	// The last middleware added is the first to see the request
	var inner http.Handler = h
	if opt.timeout > 0 {
		inner = http.TimeoutHandler(inner, opt.timeout, timeoutBody)
	}
	if opt.authSecret != "" {
		inner = &authHandler{inner: inner, secret: []byte(opt.authSecret)}
	}
	inner = &logHandler{inner: inner, logger: opt.logger.Named("http")}
	return &requestIDHandler{inner: inner}, nil
}

// MustNew is like New but panics if the handler cannot be created
func MustNew(svc Restaurants, opts ...Option) http.Handler {
	h, err := New(svc, opts...)
	if err != nil {
		panic("restaurantql.MustNew: " + err.Error())
	}
	return h
}
