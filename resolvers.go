package restaurantql

// resolvers.go binds the GraphQL fields to the restaurant operations

import (
	"context"
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"

	"github.com/andrewwphillips/restaurantql/internal/handler"
	"github.com/andrewwphillips/restaurantql/internal/metrics"
	"github.com/andrewwphillips/restaurantql/internal/restaurant"
)

// Fields of Restaurant that are obtained from upstream APIs
const (
	fieldTemperature = "temperature"
	fieldLocalTime   = "localTime"
)

type resolvers struct {
	svc          Restaurants
	authRequired bool
	logger       *zap.Logger
}

// table returns the resolvers of all the fields of the schema
func (r resolvers) table() handler.Resolvers {
	return handler.Resolvers{
		"Query": {
			"getRestaurant":  r.observe("getRestaurant", r.getRestaurant),
			"getRestaurants": r.observe("getRestaurants", r.getRestaurants),
		},
		"Mutation": {
			"addRestaurant":    r.observe("addRestaurant", r.mutation(r.addRestaurant)),
			"deleteRestaurant": r.observe("deleteRestaurant", r.mutation(r.deleteRestaurant)),
		},
		"Restaurant": {
			"id":             viewField(func(v *restaurant.View) interface{} { return v.ID }),
			"name":           viewField(func(v *restaurant.View) interface{} { return v.Name }),
			"address":        viewField(func(v *restaurant.View) interface{} { return v.Address }),
			"city":           viewField(func(v *restaurant.View) interface{} { return v.City }),
			"country":        viewField(func(v *restaurant.View) interface{} { return v.Country }),
			"phone":          viewField(func(v *restaurant.View) interface{} { return v.Phone }),
			"fullAddress":    viewField(func(v *restaurant.View) interface{} { return v.FullAddress }),
			fieldTemperature: viewField(func(v *restaurant.View) interface{} { return v.Temperature }),
			fieldLocalTime:   viewField(func(v *restaurant.View) interface{} { return v.LocalTime }),
		},
	}
}

func (r resolvers) getRestaurant(ctx context.Context, p handler.Params) (interface{}, error) {
	return r.svc.GetRestaurant(ctx, stringArg(p, "id"), wantsEnrichment(p.Field.SelectionSet))
}

func (r resolvers) getRestaurants(ctx context.Context, p handler.Params) (interface{}, error) {
	return r.svc.GetRestaurants(ctx, stringArg(p, "city"), wantsEnrichment(p.Field.SelectionSet))
}

func (r resolvers) addRestaurant(ctx context.Context, p handler.Params) (interface{}, error) {
	in := restaurant.Input{
		Name:    stringArg(p, "name"),
		Address: stringArg(p, "address"),
		City:    stringArg(p, "city"),
		Phone:   stringArg(p, "phone"),
	}
	return r.svc.AddRestaurant(ctx, in, wantsEnrichment(p.Field.SelectionSet))
}

func (r resolvers) deleteRestaurant(ctx context.Context, p handler.Params) (interface{}, error) {
	return r.svc.DeleteRestaurant(ctx, stringArg(p, "id"))
}

// mutation wraps a resolver that changes data so that it is only called for an authorised request
func (r resolvers) mutation(fn handler.FieldFunc) handler.FieldFunc {
	if !r.authRequired {
		return fn
	}
	return func(ctx context.Context, p handler.Params) (interface{}, error) {
		if _, ok := Subject(ctx); !ok {
			return nil, errUnauthenticated
		}
		return fn(ctx, p)
	}
}

// observe counts calls of a root field by error code
func (r resolvers) observe(field string, fn handler.FieldFunc) handler.FieldFunc {
	return func(ctx context.Context, p handler.Params) (interface{}, error) {
		value, err := fn(ctx, p)
		code := ""
		if err != nil {
			code = errorCode(err)
			if code == string(restaurant.KindInternal) {
				r.logger.Error("operation failed", zap.String("field", field), zap.Error(err))
			}
		}
		metrics.Operations.WithLabelValues(field, code).Inc()
		return value, err
	}
}

// errorCode returns the code reported to the client in extensions.code
func errorCode(err error) string {
	var c interface{ Code() string }
	if errors.As(err, &c) {
		return c.Code()
	}
	return string(restaurant.KindInternal)
}

func viewField(get func(*restaurant.View) interface{}) handler.FieldFunc {
	return func(_ context.Context, p handler.Params) (interface{}, error) {
		v, ok := p.Source.(*restaurant.View)
		if !ok {
			return nil, errors.New("restaurant field resolved without a restaurant")
		}
		return get(v), nil
	}
}

// stringArg returns a (non-null) string or ID argument
func stringArg(p handler.Params, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

// wantsEnrichment checks if the selection set asks for a field that needs upstream data,
// including fields selected through (inline or named) fragments
func wantsEnrichment(set ast.SelectionSet) bool {
	for _, s := range set {
		switch sel := s.(type) {
		case *ast.Field:
			if sel.Name == fieldTemperature || sel.Name == fieldLocalTime {
				return true
			}
		case *ast.InlineFragment:
			if wantsEnrichment(sel.SelectionSet) {
				return true
			}
		case *ast.FragmentSpread:
			if sel.Definition != nil && wantsEnrichment(sel.Definition.SelectionSet) {
				return true
			}
		}
	}
	return false
}
