package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/models"
	"github.com/Yusei-0/cuba-click/internal/money"
)

type ShippingStore interface {
	// ShippingCost reports found=false when no row exists for the pair.
	ShippingCost(ctx context.Context, providerID, municipalityID primitive.ObjectID) (cost models.ShippingCost, found bool, err error)
}

type ShippingLookup struct {
	store ShippingStore
}

func NewShippingLookup(store ShippingStore) *ShippingLookup {
	return &ShippingLookup{store: store}
}

// Cost returns the provider's delivery cost to a municipality in currency.
// A missing row means free shipping. Negative stored costs are clamped to zero.
func (l *ShippingLookup) Cost(ctx context.Context, providerID, municipalityID primitive.ObjectID, currency string) (money.Amount, error) {
	zero := money.NewNative(decimal.Zero, currency)
	if municipalityID.IsZero() {
		return zero, nil
	}

	row, found, err := l.store.ShippingCost(ctx, providerID, municipalityID)
	if err != nil {
		return zero, err
	}
	return costOf(row, found, currency), nil
}

func costOf(row models.ShippingCost, found bool, currency string) money.Amount {
	if !found || row.Cost <= 0 {
		return money.NewNative(decimal.Zero, currency)
	}
	return money.NativeFromFloat(row.Cost, currency)
}

type MunicipalityStore interface {
	Municipalities(ctx context.Context) ([]models.Municipality, error)
	ShippingCostsForProvider(ctx context.Context, providerID primitive.ObjectID) ([]models.ShippingCost, error)
}

type MunicipalityShipping struct {
	Municipality models.Municipality `json:"municipality"`
	Cost         money.Amount        `json:"cost"`
}

// ShippingTable lists every municipality with the provider's delivery cost
// to it, using the same zero-cost rule as Cost.
func ShippingTable(ctx context.Context, store MunicipalityStore, providerID primitive.ObjectID, currency string) ([]MunicipalityShipping, error) {
	municipalities, err := store.Municipalities(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := store.ShippingCostsForProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	byMunicipality := make(map[primitive.ObjectID]models.ShippingCost, len(rows))
	for _, r := range rows {
		byMunicipality[r.MunicipalityID] = r
	}

	out := make([]MunicipalityShipping, 0, len(municipalities))
	for _, m := range municipalities {
		row, found := byMunicipality[m.ID]
		out = append(out, MunicipalityShipping{Municipality: m, Cost: costOf(row, found, currency)})
	}
	return out, nil
}
