// Package model holds the documents persisted by the store.
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document field names, shared by the store backends and their filters.
const (
	FieldName    = "name"
	FieldAddress = "address"
	FieldCity    = "city"
	FieldCountry = "country"
	FieldPhone   = "phone"
)

// Restaurant is the only persisted entity.  Country is derived from the phone number
// when the restaurant is created and never supplied by the client.
type Restaurant struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Address   string             `bson:"address" json:"address"`
	City      string             `bson:"city" json:"city"`
	Country   string             `bson:"country" json:"country"`
	Phone     string             `bson:"phone" json:"phone"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Field returns the value of a document field by its stored name.
// The 2nd return value is false if name is not a filterable field.
func (r *Restaurant) Field(name string) (string, bool) {
	switch name {
	case FieldName:
		return r.Name, true
	case FieldAddress:
		return r.Address, true
	case FieldCity:
		return r.City, true
	case FieldCountry:
		return r.Country, true
	case FieldPhone:
		return r.Phone, true
	}
	return "", false
}
