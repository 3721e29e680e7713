package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Yusei-0/cuba-click/internal/models"
)

const (
	colCurrencies             = "currencies"
	colPaymentMethods         = "payment_methods"
	colProviders              = "providers"
	colProviderPaymentMethods = "provider_payment_methods"
	colExchangeRates          = "exchange_rates"
	colSettings               = "settings"
	colShippingCosts          = "shipping_costs"
	colMunicipalities         = "municipalities"
	colProducts               = "products"
	colOrders                 = "orders"
	colOrderLines             = "order_lines"
	colOrderHistory           = "order_history"
)

var ErrNotFound = errors.New("document not found")

// Store is the mongo-backed data service. Every call is bounded by the
// configured timeout on top of the caller's context.
type Store struct {
	db      *mongo.Database
	timeout time.Duration
}

func NewStore(db *mongo.Database, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

func (s *Store) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

func (s *Store) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.Client().Ping(checkCtx, readpref.Primary())
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any) (T, bool, error) {
	var doc T
	err := col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, err
	}
	return doc, true, nil
}

/* =========================
   REFERENCE DATA
========================= */

func (s *Store) BaseConfig(ctx context.Context) (models.BaseConfig, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	setting, found, err := findOne[models.Setting](ctx, s.db.Collection(colSettings), bson.M{"_id": models.BaseExchangeSourceKey})
	if err != nil || !found {
		return models.BaseConfig{}, err
	}
	return setting.Value, nil
}

func (s *Store) SetBaseConfig(ctx context.Context, cfg models.BaseConfig) (models.Setting, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	setting := models.Setting{
		Key:         models.BaseExchangeSourceKey,
		Value:       cfg,
		Description: "base currency and payment method for exchange rates",
		UpdatedAt:   time.Now().UTC(),
	}
	_, err := s.db.Collection(colSettings).ReplaceOne(ctx,
		bson.M{"_id": setting.Key},
		setting,
		options.Replace().SetUpsert(true),
	)
	return setting, err
}

func (s *Store) ProviderPaymentMethods(ctx context.Context, providerID primitive.ObjectID, currency string) ([]models.ProviderPaymentMethod, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return findAll[models.ProviderPaymentMethod](ctx, s.db.Collection(colProviderPaymentMethods), bson.M{
		"providerId": providerID,
		"currency":   currency,
	})
}

func (s *Store) PaymentMethodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.PaymentMethod, error) {
	if len(ids) == 0 {
		return []models.PaymentMethod{}, nil
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return findAll[models.PaymentMethod](ctx, s.db.Collection(colPaymentMethods), bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) CurrenciesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Currency, error) {
	if len(ids) == 0 {
		return []models.Currency{}, nil
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return findAll[models.Currency](ctx, s.db.Collection(colCurrencies), bson.M{"_id": bson.M{"$in": ids}})
}

// ExchangeRatesFrom returns rates leaving the (currency, method) source pair
// towards any of destinationMethodIDs, oldest first so later rows win on dedupe.
func (s *Store) ExchangeRatesFrom(ctx context.Context, currencyID, paymentMethodID primitive.ObjectID, destinationMethodIDs []primitive.ObjectID) ([]models.ExchangeRate, error) {
	if len(destinationMethodIDs) == 0 {
		return []models.ExchangeRate{}, nil
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return findAll[models.ExchangeRate](ctx, s.db.Collection(colExchangeRates),
		bson.M{
			"sourceCurrencyId":           currencyID,
			"sourcePaymentMethodId":      paymentMethodID,
			"destinationPaymentMethodId": bson.M{"$in": destinationMethodIDs},
		},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
}

func (s *Store) ShippingCost(ctx context.Context, providerID, municipalityID primitive.ObjectID) (models.ShippingCost, bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return findOne[models.ShippingCost](ctx, s.db.Collection(colShippingCosts), bson.M{
		"providerId":     providerID,
		"municipalityId": municipalityID,
	})
}

func (s *Store) ShippingCostsForProvider(ctx context.Context, providerID primitive.ObjectID) ([]models.ShippingCost, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return findAll[models.ShippingCost](ctx, s.db.Collection(colShippingCosts), bson.M{"providerId": providerID})
}

// Municipalities returns every municipality ordered by name.
func (s *Store) Municipalities(ctx context.Context) ([]models.Municipality, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return findAll[models.Municipality](ctx, s.db.Collection(colMunicipalities), bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (s *Store) ProviderByID(ctx context.Context, id primitive.ObjectID) (models.Provider, bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	return findOne[models.Provider](ctx, s.db.Collection(colProviders), bson.M{"_id": id})
}
