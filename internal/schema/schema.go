// Package schema declares the GraphQL schema of the restaurant API.
//
// The schema is the contract shared by the resolver bindings (see the root package) and the
// handler, which uses it to validate every request before any resolver runs.
package schema

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// SDL is the schema in GraphQL schema definition language.
const SDL = `"""
A restaurant.  The country is derived from the phone number when the restaurant is added.
"""
type Restaurant {
  id: ID!
  name: String!
  address: String!
  city: String!
  country: String!
  "Unique, in international format, eg +34911234567"
  phone: String!
  "Address, city and country, comma separated"
  fullAddress: String!
  "Current temperature in degrees Celsius, null if unavailable"
  temperature: Float
  "Current local time (HH:MM), null if unavailable"
  localTime: String
}

type Query {
  getRestaurant(id: ID!): Restaurant
  getRestaurants(city: String!): [Restaurant!]!
}

type Mutation {
  addRestaurant(name: String!, address: String!, city: String!, phone: String!): Restaurant!
  "Returns false if there is no restaurant with the id"
  deleteRestaurant(id: ID!): Boolean!
}
`

// Load parses and validates SDL.
func Load() (*ast.Schema, error) {
	s, gqlErr := gqlparser.LoadSchema(&ast.Source{
		Name:  "restaurantql.graphql",
		Input: SDL,
	})
	if gqlErr != nil {
		return nil, gqlErr
	}
	return s, nil
}
