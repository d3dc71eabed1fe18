package handler

// introspection.go builds the data returned by __schema and __type queries

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// errNoIntrospection is returned for __schema/__type when introspection has been turned off
var errNoIntrospection = errors.New("introspection is disabled")

// introspection holds the schema as maps (one per __Type etc) which are resolved using defaultResolver
type introspection struct {
	schema map[string]interface{}
	types  map[string]map[string]interface{}
}

func (h *Handler) resolveSchema(_ context.Context, _ Params) (interface{}, error) {
	if h.introspection == nil {
		return nil, errNoIntrospection
	}
	return h.introspection.schema, nil
}

func (h *Handler) resolveType(_ context.Context, p Params) (interface{}, error) {
	if h.introspection == nil {
		return nil, errNoIntrospection
	}
	name, _ := p.Args["name"].(string)
	if t, ok := h.introspection.types[name]; ok {
		return t, nil
	}
	return nil, nil
}

// newIntrospection converts the parsed schema to introspection data
func newIntrospection(s *ast.Schema) *introspection {
	in := &introspection{types: make(map[string]map[string]interface{}, len(s.Types))}

	// First create all the types so that references (which may be circular) can be made
	names := make([]string, 0, len(s.Types))
	for name, def := range s.Types {
		names = append(names, name)
		in.types[name] = map[string]interface{}{
			"kind":        string(def.Kind),
			"name":        name,
			"description": description(def.Description),
		}
	}
	sort.Strings(names)

	for _, name := range names {
		def, t := s.Types[name], in.types[name]
		switch def.Kind {
		case ast.Object, ast.Interface:
			t["fields"] = in.fields(def.Fields)
			interfaces := make([]interface{}, 0, len(def.Interfaces))
			for _, i := range def.Interfaces {
				interfaces = append(interfaces, in.types[i])
			}
			t["interfaces"] = interfaces
		case ast.Enum:
			values := make([]interface{}, 0, len(def.EnumValues))
			for _, v := range def.EnumValues {
				deprecated, reason := deprecation(v.Directives)
				values = append(values, map[string]interface{}{
					"name":              v.Name,
					"description":       description(v.Description),
					"isDeprecated":      deprecated,
					"deprecationReason": reason,
				})
			}
			t["enumValues"] = values
		case ast.InputObject:
			inputs := make([]interface{}, 0, len(def.Fields))
			for _, f := range def.Fields {
				inputs = append(inputs, in.inputValue(f.Name, f.Description, f.Type, f.DefaultValue))
			}
			t["inputFields"] = inputs
		}
		if def.Kind == ast.Interface || def.Kind == ast.Union {
			possible := make([]interface{}, 0)
			for _, p := range s.GetPossibleTypes(def) {
				possible = append(possible, in.types[p.Name])
			}
			t["possibleTypes"] = possible
		}
	}

	types := make([]interface{}, 0, len(names))
	for _, name := range names {
		types = append(types, in.types[name])
	}
	directiveNames := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		directiveNames = append(directiveNames, name)
	}
	sort.Strings(directiveNames)
	directives := make([]interface{}, 0, len(directiveNames))
	for _, name := range directiveNames {
		d := s.Directives[name]
		locations := make([]interface{}, 0, len(d.Locations))
		for _, l := range d.Locations {
			locations = append(locations, string(l))
		}
		directives = append(directives, map[string]interface{}{
			"name":         d.Name,
			"description":  description(d.Description),
			"locations":    locations,
			"args":         in.args(d.Arguments),
			"isRepeatable": false,
		})
	}

	in.schema = map[string]interface{}{
		"description":      nil,
		"types":            types,
		"queryType":        in.named(s.Query),
		"mutationType":     in.named(s.Mutation),
		"subscriptionType": in.named(s.Subscription),
		"directives":       directives,
	}
	return in
}

func (in *introspection) named(def *ast.Definition) interface{} {
	if def == nil {
		return nil
	}
	return in.types[def.Name]
}

func (in *introspection) fields(list ast.FieldList) []interface{} {
	r := make([]interface{}, 0, len(list))
	for _, f := range list {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		deprecated, reason := deprecation(f.Directives)
		r = append(r, map[string]interface{}{
			"name":              f.Name,
			"description":       description(f.Description),
			"args":              in.args(f.Arguments),
			"type":              in.typeRef(f.Type),
			"isDeprecated":      deprecated,
			"deprecationReason": reason,
		})
	}
	return r
}

func (in *introspection) args(list ast.ArgumentDefinitionList) []interface{} {
	r := make([]interface{}, 0, len(list))
	for _, a := range list {
		r = append(r, in.inputValue(a.Name, a.Description, a.Type, a.DefaultValue))
	}
	return r
}

func (in *introspection) inputValue(name, desc string, t *ast.Type, dv *ast.Value) map[string]interface{} {
	var defaultValue interface{}
	if dv != nil {
		defaultValue = dv.String()
	}
	return map[string]interface{}{
		"name":         name,
		"description":  description(desc),
		"type":         in.typeRef(t),
		"defaultValue": defaultValue,
	}
}

// typeRef returns the __Type for a type reference, wrapping named types in NON_NULL and LIST types
func (in *introspection) typeRef(t *ast.Type) map[string]interface{} {
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return map[string]interface{}{"kind": "NON_NULL", "name": nil, "description": nil, "ofType": in.typeRef(&inner)}
	}
	if t.Elem != nil {
		return map[string]interface{}{"kind": "LIST", "name": nil, "description": nil, "ofType": in.typeRef(t.Elem)}
	}
	return in.types[t.NamedType]
}

// description returns nil (GraphQL null) for an empty description
func description(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func deprecation(directives ast.DirectiveList) (bool, interface{}) {
	d := directives.ForName("deprecated")
	if d == nil {
		return false, nil
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return true, arg.Value.Raw
	}
	return true, "No longer supported"
}
