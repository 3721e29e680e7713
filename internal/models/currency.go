package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Currency is reference data; Code is the ISO-like code customers pay in (e.g. "USD").
type Currency struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code   string             `bson:"code" json:"code"`
	Symbol string             `bson:"symbol" json:"symbol"`
}

type PaymentMethod struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}
