package handler

// options.go handles setting of handler options

// The use of closures for options makes it simple for the caller to add any desired options.  The handler.New()
// function takes as its last (variadic) parameter a slice of closures each with the signature func(*Handler).
// The option functions below (NoIntrospection, etc) return such a closure which captures any parameters passed
// to the option function so that the handler can be modified when the closure is run.  So for example in this call:
//
//   handler.New(schema, resolvers, handler.NoIntrospection(true))
//
// handler.NoIntrospection(true) is called and the generated closure is passed to handler.New(), which calls
// SetOptions() to run it and so set the noIntrospection field of the handler.
//
// A pitfall is that if the same option function is used more than once then only the last use has any effect.

import (
	"go.uber.org/zap"
)

const defaultMaxBodyBytes = 1 << 20 // largest POST body accepted

// SetOptions takes a slice of handler options (closures) and executes them
func (h *Handler) SetOptions(options ...func(*Handler)) {
	for _, option := range options {
		option(h)
	}

	// Set any options that still have their unset (zero) value
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = defaultMaxBodyBytes
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
}

// NoIntrospection turns off introspection queries (__schema and __type, but not __typename)
func NoIntrospection(on bool) func(*Handler) {
	return func(h *Handler) {
		h.noIntrospection = on
	}
}

// NoConcurrency turns off concurrent execution of query fields
func NoConcurrency(on bool) func(*Handler) {
	return func(h *Handler) {
		h.noConcurrency = on
	}
}

// Logger sets the logger used to report resolver panics and encoding failures
func Logger(logger *zap.Logger) func(*Handler) {
	return func(h *Handler) {
		h.logger = logger
	}
}

// MaxBodyBytes limits the size of a POSTed request
func MaxBodyBytes(n int64) func(*Handler) {
	return func(h *Handler) {
		h.maxBodyBytes = n
	}
}
