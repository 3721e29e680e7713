package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	SaleEnabled bool               `bson:"saleEnabled" json:"saleEnabled"`
	SalePrice   float64            `bson:"salePrice" json:"salePrice"`
	IsOnSale    bool               `bson:"-" json:"isOnSale"`
	Currency    string             `bson:"currency" json:"currency"`
	ProviderID  primitive.ObjectID `bson:"providerId" json:"providerId"`
	ImagePath   string             `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

func isProductOnSale(price float64, saleEnabled bool, salePrice float64) bool {
	return saleEnabled && salePrice > 0 && salePrice < price
}

func effectiveProductPrice(price float64, saleEnabled bool, salePrice float64) float64 {
	if isProductOnSale(price, saleEnabled, salePrice) {
		return salePrice
	}
	return price
}

// OnSale reports whether the sale price currently replaces the list price.
func (p Product) OnSale() bool {
	return isProductOnSale(p.Price, p.SaleEnabled, p.SalePrice)
}

// EffectivePrice is the unit price a customer pays right now, in p.Currency.
func (p Product) EffectivePrice() float64 {
	return effectiveProductPrice(p.Price, p.SaleEnabled, p.SalePrice)
}

// Purchasable reports whether the product may be put in a cart.
func (p Product) Purchasable() bool {
	return p.IsActive && !p.IsDeleted && !p.ProviderID.IsZero()
}
