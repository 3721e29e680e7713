package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Yusei-0/cuba-click/internal/models"
)

// ListExchangeRates returns every rate newest first, joined with currency
// codes and payment method names. Dangling references are left blank.
func (s *Store) ListExchangeRates(ctx context.Context) ([]models.ExchangeRateView, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	rates, err := findAll[models.ExchangeRate](ctx, s.db.Collection(colExchangeRates), bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}

	currencyIDs := make([]primitive.ObjectID, 0, len(rates)*2)
	methodIDs := make([]primitive.ObjectID, 0, len(rates)*2)
	for _, r := range rates {
		currencyIDs = append(currencyIDs, r.SourceCurrencyID, r.DestinationCurrencyID)
		methodIDs = append(methodIDs, r.SourcePaymentMethodID, r.DestinationPaymentMethodID)
	}

	codes := map[primitive.ObjectID]string{}
	if len(currencyIDs) > 0 {
		currencies, err := findAll[models.Currency](ctx, s.db.Collection(colCurrencies), bson.M{"_id": bson.M{"$in": currencyIDs}})
		if err != nil {
			return nil, err
		}
		for _, c := range currencies {
			codes[c.ID] = c.Code
		}
	}
	names := map[primitive.ObjectID]string{}
	if len(methodIDs) > 0 {
		methods, err := findAll[models.PaymentMethod](ctx, s.db.Collection(colPaymentMethods), bson.M{"_id": bson.M{"$in": methodIDs}})
		if err != nil {
			return nil, err
		}
		for _, m := range methods {
			names[m.ID] = m.Name
		}
	}

	views := make([]models.ExchangeRateView, 0, len(rates))
	for _, r := range rates {
		views = append(views, models.ExchangeRateView{
			ExchangeRate:             r,
			SourceCurrency:           codes[r.SourceCurrencyID],
			SourcePaymentMethod:      names[r.SourcePaymentMethodID],
			DestinationCurrency:      codes[r.DestinationCurrencyID],
			DestinationPaymentMethod: names[r.DestinationPaymentMethodID],
		})
	}
	return views, nil
}

func (s *Store) InsertExchangeRate(ctx context.Context, rate models.ExchangeRate) (models.ExchangeRate, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	rate.ID = primitive.NewObjectID()
	rate.CreatedAt = time.Now().UTC()
	rate.LastUpdated = nil
	if _, err := s.db.Collection(colExchangeRates).InsertOne(ctx, rate); err != nil {
		return models.ExchangeRate{}, err
	}
	return rate, nil
}

// UpdateExchangeRateMultiplier sets a new multiplier and stamps lastUpdated.
func (s *Store) UpdateExchangeRateMultiplier(ctx context.Context, id primitive.ObjectID, multiplier float64) (models.ExchangeRate, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var rate models.ExchangeRate
	err := s.db.Collection(colExchangeRates).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"multiplier": multiplier, "lastUpdated": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rate)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ExchangeRate{}, ErrNotFound
	}
	return rate, err
}

func (s *Store) DeleteExchangeRate(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.db.Collection(colExchangeRates).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
