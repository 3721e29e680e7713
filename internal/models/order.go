package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order defines the persisted order document. ProductSubtotal and ShippingCost
// are always in NativeCurrency, never in the currency the customer pays in.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientName      string             `bson:"clientName" json:"clientName"`
	ClientPhone     string             `bson:"clientPhone" json:"clientPhone"`
	ClientIDNumber  string             `bson:"clientIdNumber,omitempty" json:"clientIdNumber,omitempty"`
	MunicipalityID  primitive.ObjectID `bson:"municipalityId" json:"municipalityId"`
	Address         string             `bson:"address" json:"address"`
	Currency        string             `bson:"currency" json:"currency"`
	PaymentMethodID primitive.ObjectID `bson:"paymentMethodId" json:"paymentMethodId"`
	ProviderID      primitive.ObjectID `bson:"providerId" json:"providerId"`
	NativeCurrency  string             `bson:"nativeCurrency" json:"nativeCurrency"`
	ProductSubtotal float64            `bson:"productSubtotal" json:"productSubtotal"`
	ShippingCost    float64            `bson:"shippingCost" json:"shippingCost"`
	Status          OrderStatus        `bson:"status" json:"status"`
	TrackingCode    string             `bson:"trackingCode" json:"trackingCode"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	Lines           []OrderLine        `bson:"-" json:"lines,omitempty"`
}

// OrderLine snapshots the unit price at purchase time.
type OrderLine struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   primitive.ObjectID `bson:"orderId" json:"orderId"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
}

// OrderHistory is the list of order ids a client has placed, oldest first.
type OrderHistory struct {
	ClientID  string               `bson:"_id" json:"clientId"`
	OrderIDs  []primitive.ObjectID `bson:"orderIds" json:"orderIds"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}
