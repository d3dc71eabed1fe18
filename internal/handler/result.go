package handler

// result.go is used to generate the query output

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/dolmen-go/jsonmap"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

type (
	// gqlOperation controls an operation (query/mutation) of a GraphQL request
	gqlOperation struct {
		*Handler // required for resolver lookups etc

		isMutation bool
		variables  map[string]interface{} // variables for this op (extracted from the request)
	}

	// gqlValue contains the result of a query or queries, or an error, plus the name
	gqlValue struct {
		name  string      // name/alias of the entry/resolver
		value interface{} // scalar, nested result (jsonmap.Ordered), list ([]interface{})
		err   error       // non-nil if something went wrong whence the contents of value should be ignored
	}

	// fieldError records which field (alias) a resolver error came from
	fieldError struct {
		field string
		err   error
	}
)

func (e *fieldError) Error() string { return e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }

// GetSelections resolves the selections in a query by finding and evaluating the corresponding resolver(s)
// Returns a jsonmap.Ordered (a map of values and a slice that remembers the order they were added) that contains an
//
//	entry for each selection, where the map "key" is the name (alias) of the field and the value is:
//	a) scalar value (stored in an interface})
//	b) a nested jsonmap.Ordered if the field is an object
//	c) a slice (ie []interface{}) if the field is a list.
//
// Parameters:
//
//	ctx = a Go context that could expire at any time
//	set = list of selections from a GraphQL query to be resolved
//	def = the object type whose fields are being selected
//	source = value of the object (passed to the resolvers)
func (op *gqlOperation) GetSelections(ctx context.Context, set ast.SelectionSet, def *ast.Definition, source interface{},
) (jsonmap.Ordered, error) {
	fields := op.collectFields(set, def)
	r := jsonmap.Ordered{
		Data:  make(map[string]interface{}, len(fields)),
		Order: make([]string, 0, len(fields)),
	}

	// Mutation fields must be executed in order and we stop at the first that fails
	if op.isMutation || op.noConcurrency {
		for _, f := range fields {
			ch := make(chan gqlValue, 1)
			op.wrapResolve(ctx, f, def, source, ch)
			v := <-ch
			if v.err != nil {
				return jsonmap.Ordered{}, v.err
			}
			r.Order = append(r.Order, v.name)
			r.Data[v.name] = v.value
		}
		return r, nil
	}

	resultChans := make([]<-chan gqlValue, 0, len(fields))
	for _, f := range fields {
		ch := make(chan gqlValue, 1) // buffered so the goroutine can finish if we stop listening
		go op.wrapResolve(ctx, f, def, source, ch)
		resultChans = append(resultChans, ch)
	}

	// Now extract the values (will block until all have been sent)
	for _, ch := range resultChans {
		select {
		case v := <-ch:
			if v.err != nil {
				return jsonmap.Ordered{}, v.err
			}
			r.Order = append(r.Order, v.name)
			r.Data[v.name] = v.value
		case <-ctx.Done():
			return jsonmap.Ordered{}, ctx.Err()
		}
	}
	return r, nil
}

// wrapResolve resolves one field sending the result on ch, converting a panic into an error
func (op *gqlOperation) wrapResolve(ctx context.Context, f *ast.Field, def *ast.Definition, source interface{},
	ch chan<- gqlValue,
) {
	defer func() {
		if r := recover(); r != nil {
			op.logger.Error("resolver panic",
				zap.String("type", def.Name), zap.String("field", f.Name),
				zap.Any("panic", r), zap.Stack("stack"))
			ch <- gqlValue{err: &fieldError{field: f.Alias, err: fmt.Errorf("internal error resolving %q", f.Alias)}}
		}
	}()
	ch <- op.resolveField(ctx, f, def, source)
}

// resolveField calls the resolver for a field then completes the value according to the field's type
func (op *gqlOperation) resolveField(ctx context.Context, f *ast.Field, def *ast.Definition, source interface{}) gqlValue {
	if f.Name == "__typename" {
		return gqlValue{name: f.Alias, value: def.Name}
	}
	if f.Definition == nil {
		return gqlValue{err: &fieldError{field: f.Alias, err: fmt.Errorf("unknown field %q of %s", f.Name, def.Name)}}
	}

	var value interface{}
	var err error
	if fn := op.resolverFor(def.Name, f.Name); fn != nil {
		value, err = fn(ctx, Params{Source: source, Args: f.ArgumentMap(op.variables), Field: f})
	} else {
		value, err = defaultResolver(source, f.Name)
	}
	if err == nil {
		value, err = op.completeValue(ctx, f, f.Definition.Type, value)
	}
	if err != nil {
		var fe *fieldError
		if !errors.As(err, &fe) {
			err = &fieldError{field: f.Alias, err: err}
		}
		return gqlValue{err: err}
	}
	return gqlValue{name: f.Alias, value: value}
}

// completeValue converts a value returned by a resolver to a form that can be encoded as JSON
func (op *gqlOperation) completeValue(ctx context.Context, f *ast.Field, t *ast.Type, value interface{}) (interface{}, error) {
	if isNil(value) {
		if t.NonNull {
			return nil, fmt.Errorf("null value for non-null field %q", f.Alias)
		}
		return nil, nil
	}

	// Lists
	if t.Elem != nil {
		v := reflect.ValueOf(value)
		for v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return nil, fmt.Errorf("field %q expected a list but got %T", f.Alias, value)
		}
		list := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := op.completeValue(ctx, f, t.Elem, v.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	}

	def := op.schema.Types[t.NamedType]
	if def == nil {
		return nil, fmt.Errorf("field %q has unknown type %q", f.Alias, t.NamedType)
	}
	switch def.Kind {
	case ast.Scalar, ast.Enum:
		return scalarValue(t.NamedType, value), nil
	case ast.Object:
		return op.GetSelections(ctx, f.SelectionSet, def, value)
	case ast.Interface, ast.Union:
		typer, ok := value.(Typer)
		if !ok {
			return nil, fmt.Errorf("cannot determine the object type of field %q (%T)", f.Alias, value)
		}
		concrete := op.schema.Types[typer.GraphQLType()]
		if concrete == nil || concrete.Kind != ast.Object {
			return nil, fmt.Errorf("field %q: %q is not an object type", f.Alias, typer.GraphQLType())
		}
		return op.GetSelections(ctx, f.SelectionSet, concrete, value)
	}
	return nil, fmt.Errorf("field %q: unexpected type kind %s", f.Alias, def.Kind)
}

// defaultResolver looks up a field in a map (as used for introspection data)
func defaultResolver(source interface{}, name string) (interface{}, error) {
	if m, ok := source.(map[string]interface{}); ok {
		return m[name], nil
	}
	return nil, fmt.Errorf("no resolver for field %q", name)
}

// scalarValue follows pointers to get the underlying scalar value
func scalarValue(typeName string, value interface{}) interface{} {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if typeName == "ID" {
		return fmt.Sprint(v.Interface()) // IDs are always serialized as strings
	}
	return v.Interface()
}

// isNil returns true for nil and typed nil values (pointers, maps, slices etc)
func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
