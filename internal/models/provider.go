package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Provider struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	Contact string             `bson:"contact,omitempty" json:"contact,omitempty"`
	Active  bool               `bson:"active" json:"active"`
}

// ProviderPaymentMethod states that a provider accepts PaymentMethodID when the
// customer pays in Currency (a currency code).
type ProviderPaymentMethod struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProviderID      primitive.ObjectID `bson:"providerId" json:"providerId"`
	Currency        string             `bson:"currency" json:"currency"`
	PaymentMethodID primitive.ObjectID `bson:"paymentMethodId" json:"paymentMethodId"`
}
