package handler

// lookup.go builds the resolver lookup tables and collects the fields of a selection set

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2/ast"
)

// makeResolverTables copies the resolvers, checking that each one names a field of the schema and that
// every field of the root operation types has a resolver.  Introspection resolvers are added to Query.
func (h *Handler) makeResolverTables(resolvers Resolvers) error {
	h.resolvers = make(Resolvers, len(resolvers)+1)
	for typeName, fields := range resolvers {
		def := h.schema.Types[typeName]
		if def == nil || def.Kind != ast.Object {
			return errors.Errorf("resolvers given for %q which is not an object type", typeName)
		}
		table := make(map[string]FieldFunc, len(fields)+2)
		for name, fn := range fields {
			if def.Fields.ForName(name) == nil {
				return errors.Errorf("resolver %s.%s is not in the schema", typeName, name)
			}
			if fn == nil {
				return errors.Errorf("resolver %s.%s is nil", typeName, name)
			}
			table[name] = fn
		}
		h.resolvers[typeName] = table
	}

	for _, root := range []*ast.Definition{h.schema.Query, h.schema.Mutation} {
		if root == nil {
			continue
		}
		for _, f := range root.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue // introspection
			}
			if h.resolverFor(root.Name, f.Name) == nil {
				return errors.Errorf("no resolver for %s.%s", root.Name, f.Name)
			}
		}
	}

	if h.resolvers[h.schema.Query.Name] == nil {
		h.resolvers[h.schema.Query.Name] = make(map[string]FieldFunc, 2)
	}
	h.resolvers[h.schema.Query.Name]["__schema"] = h.resolveSchema
	h.resolvers[h.schema.Query.Name]["__type"] = h.resolveType
	return nil
}

// resolverFor returns the resolver for a field of an object type or nil if there is none
func (h *Handler) resolverFor(typeName, fieldName string) FieldFunc {
	return h.resolvers[typeName][fieldName]
}

// collectFields returns the fields selected for an object type, flattening fragments (whose type condition
// matches) and dropping fields excluded by @skip/@include.  Fields with the same alias are merged.
func (op *gqlOperation) collectFields(set ast.SelectionSet, def *ast.Definition) []*ast.Field {
	var fields []*ast.Field
	index := make(map[string]int)
	op.collect(set, def, &fields, index)
	return fields
}

func (op *gqlOperation) collect(set ast.SelectionSet, def *ast.Definition, fields *[]*ast.Field, index map[string]int) {
	for _, s := range set {
		switch sel := s.(type) {
		case *ast.Field:
			if op.directiveBypass(sel.Directives) {
				continue
			}
			if i, ok := index[sel.Alias]; ok {
				merged := *(*fields)[i]
				merged.SelectionSet = append(append(ast.SelectionSet{}, merged.SelectionSet...), sel.SelectionSet...)
				(*fields)[i] = &merged
				continue
			}
			index[sel.Alias] = len(*fields)
			*fields = append(*fields, sel)

		case *ast.InlineFragment:
			if op.directiveBypass(sel.Directives) || !op.typeMatches(sel.TypeCondition, def) {
				continue
			}
			op.collect(sel.SelectionSet, def, fields, index)

		case *ast.FragmentSpread:
			if sel.Definition == nil || op.directiveBypass(sel.Directives) ||
				!op.typeMatches(sel.Definition.TypeCondition, def) {
				continue
			}
			op.collect(sel.Definition.SelectionSet, def, fields, index)
		}
	}
}

// typeMatches checks if a fragment's type condition applies to an object type
func (op *gqlOperation) typeMatches(condition string, def *ast.Definition) bool {
	if condition == "" || condition == def.Name {
		return true
	}
	for _, name := range def.Interfaces {
		if name == condition {
			return true
		}
	}
	if union := op.schema.Types[condition]; union != nil && union.Kind == ast.Union {
		for _, name := range union.Types {
			if name == def.Name {
				return true
			}
		}
	}
	return false
}

// directiveBypass checks for directives that cause the field or fragment to be omitted (@skip and @include)
func (op *gqlOperation) directiveBypass(directives ast.DirectiveList) bool {
	for _, d := range directives {
		arg := d.Arguments.ForName("if")
		if arg == nil {
			continue
		}
		value, err := arg.Value.Value(op.variables)
		if err != nil {
			continue
		}
		on, _ := value.(bool)
		switch d.Name {
		case "skip":
			if on {
				return true
			}
		case "include":
			if !on {
				return true
			}
		}
	}
	return false
}
