// Package payment decides which payment methods a customer may use for a
// provider and currency, and at which multiplier against the store's base
// pricing reference.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/models"
)

const unknownMethodName = "Unknown"

// ErrMethodsUnavailable wraps every data-read failure during resolution.
var ErrMethodsUnavailable = errors.New("payment methods unavailable")

// Store is the slice of the data service the resolver reads from.
type Store interface {
	// BaseConfig returns the zero value when the administrator never set one.
	BaseConfig(ctx context.Context) (models.BaseConfig, error)
	ProviderPaymentMethods(ctx context.Context, providerID primitive.ObjectID, currency string) ([]models.ProviderPaymentMethod, error)
	PaymentMethodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.PaymentMethod, error)
	ExchangeRatesFrom(ctx context.Context, currencyID, paymentMethodID primitive.ObjectID, destinationMethodIDs []primitive.ObjectID) ([]models.ExchangeRate, error)
	// CurrenciesByIDs omits ids it cannot find.
	CurrenciesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Currency, error)
}

type ResolvedMethod struct {
	PaymentMethodID primitive.ObjectID `json:"paymentMethodId"`
	Name            string             `json:"name"`
	Multiplier      decimal.Decimal    `json:"multiplier"`
	Currency        string             `json:"currency"`
}

type Resolver struct {
	store Store
	log   logrus.FieldLogger
}

func NewResolver(store Store, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{store: store, log: log.WithField("component", "payment-resolver")}
}

// Resolve returns the payment methods providerID accepts in currency that
// have a conversion path from the base configuration. An empty result with a
// nil error is a normal outcome. On any read failure the result is empty and
// the error wraps ErrMethodsUnavailable.
func (r *Resolver) Resolve(ctx context.Context, providerID primitive.ObjectID, currency string) ([]ResolvedMethod, error) {
	methods, err := r.resolve(ctx, providerID, currency)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"providerId": providerID.Hex(),
			"currency":   currency,
		}).WithError(err).Warn("payment method resolution failed")
		return []ResolvedMethod{}, fmt.Errorf("%w: %w", ErrMethodsUnavailable, err)
	}
	return methods, nil
}

func (r *Resolver) resolve(ctx context.Context, providerID primitive.ObjectID, currency string) ([]ResolvedMethod, error) {
	empty := []ResolvedMethod{}
	if providerID.IsZero() || currency == "" {
		return empty, nil
	}

	base, err := r.store.BaseConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load base config: %w", err)
	}
	if !base.IsSet() {
		return empty, nil
	}

	accepted, err := r.store.ProviderPaymentMethods(ctx, providerID, currency)
	if err != nil {
		return nil, fmt.Errorf("load provider payment methods: %w", err)
	}
	if len(accepted) == 0 {
		return empty, nil
	}

	candidateIDs := make([]primitive.ObjectID, 0, len(accepted))
	seen := make(map[primitive.ObjectID]struct{}, len(accepted))
	for _, pm := range accepted {
		if _, ok := seen[pm.PaymentMethodID]; ok {
			continue
		}
		seen[pm.PaymentMethodID] = struct{}{}
		candidateIDs = append(candidateIDs, pm.PaymentMethodID)
	}

	rates, err := r.store.ExchangeRatesFrom(ctx, base.CurrencyID, base.PaymentMethodID, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("load exchange rates: %w", err)
	}

	currencyIDs := []primitive.ObjectID{base.CurrencyID}
	for _, rate := range rates {
		currencyIDs = append(currencyIDs, rate.DestinationCurrencyID)
	}
	currencies, err := r.store.CurrenciesByIDs(ctx, currencyIDs)
	if err != nil {
		return nil, fmt.Errorf("load currencies: %w", err)
	}
	codeByID := make(map[primitive.ObjectID]string, len(currencies))
	for _, c := range currencies {
		codeByID[c.ID] = c.Code
	}

	names, err := r.store.PaymentMethodsByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("load payment methods: %w", err)
	}
	nameByID := make(map[primitive.ObjectID]string, len(names))
	for _, m := range names {
		nameByID[m.ID] = m.Name
	}

	set := newMethodSet()
	for _, rate := range rates {
		if _, ok := seen[rate.DestinationPaymentMethodID]; !ok {
			continue
		}
		set.put(ResolvedMethod{
			PaymentMethodID: rate.DestinationPaymentMethodID,
			Multiplier:      decimal.NewFromFloat(rate.Multiplier),
			Currency:        codeByID[rate.DestinationCurrencyID],
		})
	}

	// Paying in the base currency with the base method is always parity.
	baseCode := codeByID[base.CurrencyID]
	if baseCode != "" && baseCode == currency {
		if _, ok := seen[base.PaymentMethodID]; ok {
			set.put(ResolvedMethod{
				PaymentMethodID: base.PaymentMethodID,
				Multiplier:      decimal.NewFromInt(1),
				Currency:        baseCode,
			})
		}
	}

	out := make([]ResolvedMethod, 0, len(set.order))
	for _, m := range set.list() {
		if m.Currency != currency {
			continue
		}
		m.Name = nameByID[m.PaymentMethodID]
		if m.Name == "" {
			m.Name = unknownMethodName
		}
		out = append(out, m)
	}
	return out, nil
}

// Find returns the method with id from a resolved list.
func Find(methods []ResolvedMethod, id primitive.ObjectID) (ResolvedMethod, bool) {
	for _, m := range methods {
		if m.PaymentMethodID == id {
			return m, true
		}
	}
	return ResolvedMethod{}, false
}

type methodKey struct {
	methodID primitive.ObjectID
	currency string
}

// methodSet keeps first-seen order and lets later entries replace earlier ones.
type methodSet struct {
	order []methodKey
	byKey map[methodKey]ResolvedMethod
}

func newMethodSet() *methodSet {
	return &methodSet{byKey: map[methodKey]ResolvedMethod{}}
}

func (s *methodSet) put(m ResolvedMethod) {
	key := methodKey{methodID: m.PaymentMethodID, currency: m.Currency}
	if _, ok := s.byKey[key]; !ok {
		s.order = append(s.order, key)
	}
	s.byKey[key] = m
}

func (s *methodSet) list() []ResolvedMethod {
	out := make([]ResolvedMethod, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}
