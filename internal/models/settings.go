package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const BaseExchangeSourceKey = "base_exchange_source"

// BaseConfig is the store's canonical pricing reference: every exchange rate
// the storefront uses starts from this (currency, payment method) pair.
type BaseConfig struct {
	CurrencyID      primitive.ObjectID `bson:"currencyId" json:"currencyId"`
	PaymentMethodID primitive.ObjectID `bson:"paymentMethodId" json:"paymentMethodId"`
}

func (b BaseConfig) IsSet() bool {
	return !b.CurrencyID.IsZero() && !b.PaymentMethodID.IsZero()
}

type Setting struct {
	Key         string     `bson:"_id" json:"key"`
	Value       BaseConfig `bson:"value" json:"value"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}
