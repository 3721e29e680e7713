package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Municipality struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProvinceID primitive.ObjectID `bson:"provinceId" json:"provinceId"`
	Name       string             `bson:"name" json:"name"`
}

// ShippingCost is priced in the provider's native currency.
type ShippingCost struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProviderID     primitive.ObjectID `bson:"providerId" json:"providerId"`
	MunicipalityID primitive.ObjectID `bson:"municipalityId" json:"municipalityId"`
	Cost           float64            `bson:"cost" json:"cost"`
}
