package restaurantql

// options.go handles options that can be used to control the GraphQL server.
// Some are just passed on to the handler. (See internal/handler/options.go
// for details on how closures are used to handle options.)

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the handler returned by New
type Option func(*options)

type options struct {
	// handler options
	noIntrospection, noConcurrency bool
	maxBodyBytes                   int64

	timeout    time.Duration
	authSecret string
	logger     *zap.Logger
}

// NoIntrospection controls whether introspection queries are permitted
func NoIntrospection(on bool) Option {
	return func(opt *options) {
		opt.noIntrospection = on
	}
}

// NoConcurrency controls whether concurrent execution of queries (but not mutations) is permitted
func NoConcurrency(on bool) Option {
	return func(opt *options) {
		opt.noConcurrency = on
	}
}

// MaxBodyBytes limits the size of a POSTed GraphQL request
func MaxBodyBytes(n int64) Option {
	return func(opt *options) {
		opt.maxBodyBytes = n
	}
}

// Timeout limits the time taken to handle a request, including all upstream calls.
// When it expires the client gets a 503 (Service Unavailable) response.  Zero means no limit.
func Timeout(timeout time.Duration) Option {
	return func(opt *options) {
		opt.timeout = timeout
	}
}

// AuthSecret turns on authorisation of mutations: a request must carry a bearer token signed
// with the secret (see IssueToken).  Queries are always allowed.
func AuthSecret(secret string) Option {
	return func(opt *options) {
		opt.authSecret = secret
	}
}

// Logger sets the logger used for the access log and for resolver failures
func Logger(logger *zap.Logger) Option {
	return func(opt *options) {
		opt.logger = logger
	}
}
