package database

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionIndex struct {
	collection string
	model      mongo.IndexModel
}

func requiredIndexes() []collectionIndex {
	return []collectionIndex{
		{
			// Authoritative guard against two orders sharing a tracking code.
			collection: colOrders,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "trackingCode", Value: 1}},
				Options: options.Index().SetName("trackingCode_unique").SetUnique(true),
			},
		},
		{
			collection: colOrders,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("status_createdAt"),
			},
		},
		{
			collection: colOrderLines,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "orderId", Value: 1}},
				Options: options.Index().SetName("orderId_index"),
			},
		},
		{
			collection: colExchangeRates,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "sourceCurrencyId", Value: 1},
					{Key: "sourcePaymentMethodId", Value: 1},
				},
				Options: options.Index().SetName("source_pair"),
			},
		},
		{
			collection: colShippingCosts,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "providerId", Value: 1},
					{Key: "municipalityId", Value: 1},
				},
				Options: options.Index().SetName("provider_municipality_unique").SetUnique(true),
			},
		},
		{
			collection: colProviderPaymentMethods,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "providerId", Value: 1},
					{Key: "currency", Value: 1},
				},
				Options: options.Index().SetName("provider_currency"),
			},
		},
	}
}

// EnsureIndexes creates every index the data service relies on. The first
// failure is returned; later indexes are not attempted.
func EnsureIndexes(db *mongo.Database, timeout time.Duration) error {
	for _, idx := range requiredIndexes() {
		name := *idx.model.Options.Name
		logger := log.WithFields(log.Fields{"collection": idx.collection, "index": name})

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		_, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model)
		cancel()
		if err != nil {
			logger.WithError(err).Error("index creation failed")
			return err
		}
		logger.Debug("index ensured")
	}
	return nil
}
