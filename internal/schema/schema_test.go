package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/andrewwphillips/restaurantql/internal/schema"
)

func TestLoad(t *testing.T) {
	s, err := schema.Load()
	require.NoError(t, err)
	require.NotNil(t, s.Query)
	require.NotNil(t, s.Mutation)
	assert.Nil(t, s.Subscription)

	// fieldTypes lists the expected (GraphQL) type of each field of each object
	fieldTypes := map[string]map[string]string{
		"Query": {
			"getRestaurant":  "Restaurant",
			"getRestaurants": "[Restaurant!]!",
		},
		"Mutation": {
			"addRestaurant":    "Restaurant!",
			"deleteRestaurant": "Boolean!",
		},
		"Restaurant": {
			"id":          "ID!",
			"name":        "String!",
			"address":     "String!",
			"city":        "String!",
			"country":     "String!",
			"phone":       "String!",
			"fullAddress": "String!",
			"temperature": "Float",
			"localTime":   "String",
		},
	}
	for typeName, fields := range fieldTypes {
		def := s.Types[typeName]
		require.NotNil(t, def, typeName)
		assert.Equal(t, ast.Object, def.Kind, typeName)
		n := 0
		for _, f := range def.Fields {
			if !strings.HasPrefix(f.Name, "__") { // introspection fields added by the parser
				n++
			}
		}
		assert.Equal(t, len(fields), n, typeName)
		for name, expected := range fields {
			f := def.Fields.ForName(name)
			if assert.NotNil(t, f, "%s.%s", typeName, name) {
				assert.Equal(t, expected, f.Type.String(), "%s.%s", typeName, name)
			}
		}
	}

	add := s.Mutation.Fields.ForName("addRestaurant")
	for _, arg := range []string{"name", "address", "city", "phone"} {
		a := add.Arguments.ForName(arg)
		if assert.NotNil(t, a, arg) {
			assert.Equal(t, "String!", a.Type.String())
		}
	}
}
