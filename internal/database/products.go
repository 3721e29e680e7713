package database

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Yusei-0/cuba-click/internal/models"
)

type ProductFilter struct {
	ProviderID primitive.ObjectID
	Search     string
	// Page and Limit of zero list everything.
	Page  int64
	Limit int64
}

func productFilterQuery(f ProductFilter) bson.M {
	query := bson.M{
		"isActive":  bson.M{"$ne": false},
		"isDeleted": bson.M{"$ne": true},
	}
	if !f.ProviderID.IsZero() {
		query["providerId"] = f.ProviderID
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	}
	return query
}

// ListProducts returns the storefront catalog newest first, with IsOnSale
// filled in.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Page > 0 && f.Limit > 0 {
		opts.SetSkip((f.Page - 1) * f.Limit).SetLimit(f.Limit)
	}

	products, err := findAll[models.Product](ctx, s.db.Collection(colProducts), productFilterQuery(f), opts)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].IsOnSale = products[i].OnSale()
	}
	return products, nil
}

func (s *Store) ProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	p, found, err := findOne[models.Product](ctx, s.db.Collection(colProducts), bson.M{
		"_id":       id,
		"isDeleted": bson.M{"$ne": true},
	})
	p.IsOnSale = p.OnSale()
	return p, found, err
}
