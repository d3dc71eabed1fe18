// Package handler implements an HTTP handler to process GraphQL queries and mutations
// given a parsed GraphQL schema and a table of resolver functions for its fields.
package handler

// handler.go implements the handler and it's ServeHTTP method

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
)

type (
	// FieldFunc resolves the value of one field.  The returned value is completed according to the
	// field's type in the schema: scalars are returned as is (pointers are followed), lists may be
	// any slice or array, and objects are resolved further using the resolvers of the object type.
	FieldFunc func(ctx context.Context, p Params) (interface{}, error)

	// Params is passed to a FieldFunc
	Params struct {
		Source interface{}            // value of the parent object (nil for root fields)
		Args   map[string]interface{} // arguments (including defaults and variables)
		Field  *ast.Field             // the field being resolved, including its sub-selections
	}

	// Resolvers maps an object type name to the resolvers of its fields.  Every field of the
	// Query and Mutation types must have a resolver.  A field of other types without a resolver
	// is looked up by name if the parent value is a map[string]interface{}.
	Resolvers map[string]map[string]FieldFunc

	// Typer is implemented by values returned for fields of interface or union type so that
	// the concrete object type can be determined
	Typer interface {
		GraphQLType() string
	}

	// Handler stores the invariants (schema and resolvers) used in the GraphQL requests
	Handler struct {
		schema        *ast.Schema
		resolvers     Resolvers
		introspection *introspection

		noIntrospection bool
		noConcurrency   bool
		maxBodyBytes    int64
		logger          *zap.Logger
	}
)

// New returns an HTTP handler given a schema and resolvers for (at least) all fields of the
// root operation types.  An error is returned if a resolver does not match the schema.
func New(schema *ast.Schema, resolvers Resolvers, options ...func(*Handler)) (*Handler, error) {
	if schema == nil || schema.Query == nil {
		return nil, errors.New("handler.New: schema has no query type")
	}
	h := &Handler{schema: schema}
	h.SetOptions(options...)
	if err := h.makeResolverTables(resolvers); err != nil {
		return nil, errors.Wrap(err, "handler.New")
	}
	if !h.noIntrospection {
		h.introspection = newIntrospection(schema)
	}
	return h, nil
}

// ServeHTTP receives a GraphQL query as an HTTP request, executes the
// query (or mutation) and generates an HTTP response or error message
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	g := gqlRequest{h: h}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		g.Query = q.Get("query")
		g.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			decoder := json.NewDecoder(strings.NewReader(vars))
			decoder.UseNumber()
			if err := decoder.Decode(&g.Variables); err != nil {
				writeError(w, http.StatusBadRequest, "error decoding variables: "+err.Error())
				return
			}
		}
		g.readOnly = true // mutations must be POSTed

	case http.MethodPost:
		// Decode the request (JSON)
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
		decoder.UseNumber() // allows us to distinguish ints from floats (see FixNumberVariables() below)
		if err := decoder.Decode(&g); err != nil {
			writeError(w, http.StatusBadRequest, "error decoding JSON request: "+err.Error())
			return
		}

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
		return
	}
	if g.Query == "" {
		writeError(w, http.StatusBadRequest, "no query in request")
		return
	}

	// Since variables are sent as JSON (which does not distinguish int/float) we need to decide
	if err := FixNumberVariables(g.Variables); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Execute it and write the result or error
	buf, err := json.Marshal(g.Execute(r.Context()))
	if err != nil {
		h.logger.Error("encoding response", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error encoding JSON response")
		return
	}
	_, _ = w.Write(buf)
}

// writeError writes a response with a single request error and no data
func writeError(w http.ResponseWriter, status int, message string) {
	buf, _ := json.Marshal(gqlResult{Errors: gqlerror.List{{Message: message}}})
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// FixNumberVariables goes through the structure created by the JSON decoder, converting any json.Number values to
// either an int64 or a float64.  This assumes that all the JSON numbers were decoded into a json.Number type, rather
// than int/float, by use of the json.Decode.UseNumber() method.
func FixNumberVariables(m map[string]interface{}) error {
	for key, val := range m {
		v, err := fixNumber(val)
		if err != nil {
			return errors.Wrapf(err, "variable %q", key)
		}
		m[key] = v
	}
	return nil
}

func fixNumber(val interface{}) (interface{}, error) {
	switch v := val.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, errors.Errorf("invalid number %q", v.String())
		}
		return f, nil

	case map[string]interface{}:
		return v, FixNumberVariables(v) // recursively handle nested numbers

	case []interface{}:
		for i := range v {
			fixed, err := fixNumber(v[i])
			if err != nil {
				return nil, err
			}
			v[i] = fixed
		}
	}
	return val, nil
}
