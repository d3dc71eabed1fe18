package handler

// execute.go handles the execution of a GraphQL request

import (
	"context"
	"errors"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
)

type (
	// gqlRequest decodes and handles each GraphQL request
	gqlRequest struct {
		h        *Handler
		readOnly bool // request came by GET

		// These are decoded from the http request body (JSON)
		Query         string
		OperationName string
		Variables     map[string]interface{}
	}

	// gqlResult contains the result (or errors) of the request to be encoded in JSON
	gqlResult struct {
		Data   interface{}   `json:"data,omitempty"`
		Errors gqlerror.List `json:"errors,omitempty"`
	}

	// coder is implemented by errors that have a machine readable code (see extensions.code)
	coder interface {
		Code() string
	}
)

// Execute parses and runs the request and returns the result
func (g *gqlRequest) Execute(ctx context.Context) (r gqlResult) {
	// First analyse and validate the query string
	query, errs := gqlparser.LoadQuery(g.h.schema, g.Query)
	if len(errs) > 0 {
		r.Errors = errs
		return
	}

	operation, err := selectOperation(query.Operations, g.OperationName)
	if err != nil {
		r.Errors = gqlerror.List{gqlerror.Errorf("%s", err.Error())}
		return
	}

	op := gqlOperation{Handler: g.h}
	if len(operation.VariableDefinitions) > 0 {
		var gqlErr *gqlerror.Error
		if op.variables, gqlErr = validator.VariableValues(g.h.schema, operation, g.Variables); gqlErr != nil {
			r.Errors = gqlerror.List{gqlErr}
			return
		}
	}

	var def *ast.Definition
	switch operation.Operation {
	case ast.Query:
		def = g.h.schema.Query
	case ast.Mutation:
		if g.readOnly {
			r.Errors = gqlerror.List{gqlerror.Errorf("mutations must be sent with POST")}
			return
		}
		op.isMutation = true
		def = g.h.schema.Mutation
	default:
		r.Errors = gqlerror.List{gqlerror.Errorf("%s operations are not supported", operation.Operation)}
		return
	}

	// The first error ends the operation and no data is returned
	result, err := op.GetSelections(ctx, operation.SelectionSet, def, nil)
	if err != nil {
		r.Errors = gqlerror.List{toGQLError(err, operation.Name)}
		return
	}
	r.Data = result
	return
}

// selectOperation finds the operation to execute: the named one, or the only one if no name was given
func selectOperation(ops ast.OperationList, name string) (*ast.OperationDefinition, error) {
	if name == "" {
		if len(ops) != 1 {
			return nil, errors.New("operationName is required unless the document has exactly one operation")
		}
		return ops[0], nil
	}
	for _, op := range ops {
		if op.Name == name {
			return op, nil
		}
	}
	return nil, errors.New("operation \"" + name + "\" not found in document")
}

// toGQLError converts an execution error to a GraphQL error with extensions giving the
// operation, the failing field and the error code (if known)
func toGQLError(err error, operationName string) *gqlerror.Error {
	e := &gqlerror.Error{
		Message:    err.Error(),
		Extensions: map[string]interface{}{"operation": operationName},
	}
	var fe *fieldError
	if errors.As(err, &fe) {
		e.Extensions["field"] = fe.field
	}
	var c coder
	if errors.As(err, &c) {
		e.Extensions["code"] = c.Code()
	}
	return e
}
