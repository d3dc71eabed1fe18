// Package restaurantql provides a GraphQL HTTP handler for a directory of restaurants.
//
// Restaurants are kept in a document store (see internal/store) and, when a client asks
// for them, enriched with the current temperature and local time of their city from
// third-party REST APIs (see internal/upstream).  The API is:
//
//	type Query {
//	  getRestaurant(id: ID!): Restaurant
//	  getRestaurants(city: String!): [Restaurant!]!
//	}
//	type Mutation {
//	  addRestaurant(name: String!, address: String!, city: String!, phone: String!): Restaurant!
//	  deleteRestaurant(id: ID!): Boolean!
//	}
//
// For example, here is the code for a complete server using an embedded store:
//
//	st, _ := store.NewBolt("restaurants.db")
//	svc := restaurant.New(st, upstream.New(cfg.Upstream, logger), logger)
//	http.Handle("/graphql", restaurantql.MustNew(svc, restaurantql.Logger(logger)))
//	http.ListenAndServe(":8080", nil)
//
// A query such as
//
//	{ getRestaurants(city: "Madrid") { name fullAddress temperature localTime } }
//
// returns JSON with the fields in the order they were requested.  Temperature and local
// time are only fetched when selected, and are null if an upstream API fails.
//
// Errors carry a machine readable code in extensions.code (eg NOT_FOUND, DUPLICATE_PHONE).
// If an auth secret is configured mutations need a bearer token (see IssueToken).
package restaurantql
