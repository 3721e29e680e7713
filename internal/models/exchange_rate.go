package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExchangeRate converts an amount priced in (SourceCurrencyID, SourcePaymentMethodID)
// into (DestinationCurrencyID, DestinationPaymentMethodID). Rates are directional.
type ExchangeRate struct {
	ID                         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SourceCurrencyID           primitive.ObjectID `bson:"sourceCurrencyId" json:"sourceCurrencyId"`
	SourcePaymentMethodID      primitive.ObjectID `bson:"sourcePaymentMethodId" json:"sourcePaymentMethodId"`
	DestinationCurrencyID      primitive.ObjectID `bson:"destinationCurrencyId" json:"destinationCurrencyId"`
	DestinationPaymentMethodID primitive.ObjectID `bson:"destinationPaymentMethodId" json:"destinationPaymentMethodId"`
	Multiplier                 float64            `bson:"multiplier" json:"multiplier"`
	LastUpdated                *time.Time         `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
	CreatedAt                  time.Time          `bson:"createdAt" json:"createdAt"`
}

// ExchangeRateView is an ExchangeRate joined with its currency codes and
// payment method names, as listed in the admin console.
type ExchangeRateView struct {
	ExchangeRate             `bson:",inline"`
	SourceCurrency           string `bson:"-" json:"sourceCurrency"`
	SourcePaymentMethod      string `bson:"-" json:"sourcePaymentMethod"`
	DestinationCurrency      string `bson:"-" json:"destinationCurrency"`
	DestinationPaymentMethod string `bson:"-" json:"destinationPaymentMethod"`
}
