// Package checkout turns a client's cart into a persisted order: it resolves
// the payment method, prices the order, allocates a tracking code and records
// the result in the client's order history.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/cart"
	"github.com/Yusei-0/cuba-click/internal/events"
	"github.com/Yusei-0/cuba-click/internal/history"
	"github.com/Yusei-0/cuba-click/internal/metrics"
	"github.com/Yusei-0/cuba-click/internal/models"
	"github.com/Yusei-0/cuba-click/internal/money"
	"github.com/Yusei-0/cuba-click/internal/payment"
	"github.com/Yusei-0/cuba-click/internal/pricing"
	"github.com/Yusei-0/cuba-click/internal/tracking"
)

var (
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidRequest          = errors.New("invalid checkout request")
	ErrProviderUnavailable     = errors.New("provider is not accepting orders")
	ErrPaymentMethodNotAllowed = errors.New("payment method not available for this provider and currency")
	// ErrTrackingCodeConflict means the store rejected the code on insert;
	// the customer can simply submit again.
	ErrTrackingCodeConflict = errors.New("tracking code already in use")
)

type Store interface {
	tracking.Checker
	// ProviderByID reports found=false for unknown providers.
	ProviderByID(ctx context.Context, id primitive.ObjectID) (models.Provider, bool, error)
	// InsertOrder stores order and lines atomically, filling in their ids.
	// It returns ErrTrackingCodeConflict when the tracking code is taken.
	InsertOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) error
}

type MethodResolver interface {
	Resolve(ctx context.Context, providerID primitive.ObjectID, currency string) ([]payment.ResolvedMethod, error)
}

type ShippingQuoter interface {
	Cost(ctx context.Context, providerID, municipalityID primitive.ObjectID, currency string) (money.Amount, error)
}

type CodeAllocator interface {
	EnsureUnique(ctx context.Context, checker tracking.Checker) (tracking.Allocation, error)
}

type Deps struct {
	Carts     *cart.Registry
	History   *history.Registry
	Resolver  MethodResolver
	Shipping  ShippingQuoter
	Codes     CodeAllocator
	Store     Store
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
}

type Service struct {
	Deps
	now func() time.Time
}

func NewService(deps Deps) *Service {
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	deps.Log = deps.Log.WithField("component", "checkout")
	return &Service{Deps: deps, now: time.Now}
}

type QuoteRequest struct {
	Currency        string
	MunicipalityID  primitive.ObjectID
	PaymentMethodID primitive.ObjectID
}

type Quote struct {
	Lines   []cart.Line              `json:"lines"`
	Methods []payment.ResolvedMethod `json:"methods"`
	Totals  pricing.Totals           `json:"totals"`
	// CanSubmit is false when no payment method resolved.
	CanSubmit bool `json:"canSubmit"`
	// Notice is set when payment methods could not be loaded.
	Notice string `json:"notice,omitempty"`
}

// Quote prices the client's cart for display. A resolution failure is
// reported through Notice and yields native-currency totals.
func (s *Service) Quote(ctx context.Context, clientID string, req QuoteRequest) (Quote, error) {
	snapshot := s.Carts.Snapshot(clientID)
	providerID, ok := snapshot.ProviderID()
	if !ok {
		return Quote{}, ErrEmptyCart
	}
	subtotal, err := snapshot.TotalPrice()
	if err != nil {
		return Quote{}, err
	}

	methods, resolveErr := s.resolve(ctx, providerID, strings.TrimSpace(req.Currency))

	shipping, err := s.Shipping.Cost(ctx, providerID, req.MunicipalityID, subtotal.Currency())
	if err != nil {
		return Quote{}, fmt.Errorf("load shipping cost: %w", err)
	}

	var rate *payment.ResolvedMethod
	if m, ok := payment.Find(methods, req.PaymentMethodID); ok {
		rate = &m
	}
	totals, err := pricing.ComputeTotals(pricing.Input{Subtotal: subtotal, Shipping: shipping, Rate: rate})
	if err != nil {
		return Quote{}, err
	}

	q := Quote{
		Lines:     snapshot.Lines(),
		Methods:   methods,
		Totals:    totals,
		CanSubmit: len(methods) > 0,
	}
	if resolveErr != nil {
		q.Notice = payment.ErrMethodsUnavailable.Error()
	}
	return q, nil
}

type PlaceOrderRequest struct {
	ClientName      string
	ClientPhone     string
	ClientIDNumber  string
	MunicipalityID  primitive.ObjectID
	Address         string
	Currency        string
	PaymentMethodID primitive.ObjectID
}

func (r PlaceOrderRequest) validate() error {
	var missing []string
	if strings.TrimSpace(r.ClientName) == "" {
		missing = append(missing, "clientName")
	}
	if strings.TrimSpace(r.ClientPhone) == "" {
		missing = append(missing, "clientPhone")
	}
	if r.MunicipalityID.IsZero() {
		missing = append(missing, "municipalityId")
	}
	if strings.TrimSpace(r.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(r.Currency) == "" {
		missing = append(missing, "currency")
	}
	if r.PaymentMethodID.IsZero() {
		missing = append(missing, "paymentMethodId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

type Receipt struct {
	Order  models.Order           `json:"order"`
	Method payment.ResolvedMethod `json:"method"`
	Totals pricing.Totals         `json:"totals"`
}

// PlaceOrder persists the client's cart as a pending order. The order is
// never stored without a tracking code that was checked free.
func (s *Service) PlaceOrder(ctx context.Context, clientID string, req PlaceOrderRequest) (Receipt, error) {
	receipt, err := s.placeOrder(ctx, clientID, req)
	s.observe(err)
	return receipt, err
}

func (s *Service) placeOrder(ctx context.Context, clientID string, req PlaceOrderRequest) (Receipt, error) {
	if err := req.validate(); err != nil {
		return Receipt{}, err
	}
	currency := strings.TrimSpace(req.Currency)

	snapshot := s.Carts.Snapshot(clientID)
	providerID, ok := snapshot.ProviderID()
	if !ok {
		return Receipt{}, ErrEmptyCart
	}

	provider, found, err := s.Store.ProviderByID(ctx, providerID)
	if err != nil {
		return Receipt{}, fmt.Errorf("load provider: %w", err)
	}
	if !found || !provider.Active {
		return Receipt{}, ErrProviderUnavailable
	}

	subtotal, err := snapshot.TotalPrice()
	if err != nil {
		return Receipt{}, err
	}

	methods, err := s.resolve(ctx, providerID, currency)
	if err != nil {
		return Receipt{}, err
	}
	method, ok := payment.Find(methods, req.PaymentMethodID)
	if !ok {
		return Receipt{}, ErrPaymentMethodNotAllowed
	}

	shipping, err := s.Shipping.Cost(ctx, providerID, req.MunicipalityID, subtotal.Currency())
	if err != nil {
		return Receipt{}, fmt.Errorf("load shipping cost: %w", err)
	}

	totals, err := pricing.ComputeTotals(pricing.Input{Subtotal: subtotal, Shipping: shipping, Rate: &method})
	if err != nil {
		return Receipt{}, err
	}

	alloc, err := s.Codes.EnsureUnique(ctx, s.Store)
	if err != nil {
		return Receipt{}, err
	}
	if s.Metrics != nil {
		s.Metrics.ObserveTrackingAttempts(alloc.Attempts)
	}

	order := models.Order{
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientPhone:     strings.TrimSpace(req.ClientPhone),
		ClientIDNumber:  strings.TrimSpace(req.ClientIDNumber),
		MunicipalityID:  req.MunicipalityID,
		Address:         strings.TrimSpace(req.Address),
		Currency:        currency,
		PaymentMethodID: method.PaymentMethodID,
		ProviderID:      providerID,
		NativeCurrency:  subtotal.Currency(),
		ProductSubtotal: totals.SubtotalNative.Float64(),
		ShippingCost:    totals.ShippingNative.Float64(),
		Status:          models.OrderStatusPending,
		TrackingCode:    alloc.Code,
		CreatedAt:       s.now().UTC(),
	}
	lines := make([]models.OrderLine, 0, len(snapshot.Lines()))
	for _, l := range snapshot.Lines() {
		unit, _ := l.UnitPrice.Float64()
		lines = append(lines, models.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: unit,
		})
	}

	if err := s.Store.InsertOrder(ctx, &order, lines); err != nil {
		return Receipt{}, err
	}
	order.Lines = lines

	log := s.Log.WithFields(logrus.Fields{
		"orderId":      order.ID.Hex(),
		"trackingCode": order.TrackingCode,
		"clientId":     clientID,
	})

	if err := s.History.For(clientID).Record(ctx, order.ID); err != nil {
		log.WithError(err).Warn("order placed but history not recorded")
	}
	_ = s.Carts.With(clientID, func(c *cart.Cart) error {
		c.Subtract(snapshot)
		return nil
	})
	if err := s.Publisher.Publish(ctx, events.NewOrderEvent(events.TypeOrderPlaced, order)); err != nil {
		log.WithError(err).Warn("order event not published")
	}

	log.Info("order placed")
	return Receipt{Order: order, Method: method, Totals: totals}, nil
}

func (s *Service) resolve(ctx context.Context, providerID primitive.ObjectID, currency string) ([]payment.ResolvedMethod, error) {
	methods, err := s.Resolver.Resolve(ctx, providerID, currency)
	if s.Metrics != nil {
		switch {
		case err != nil:
			s.Metrics.ObserveResolution("unavailable")
		case len(methods) == 0:
			s.Metrics.ObserveResolution("empty")
		default:
			s.Metrics.ObserveResolution("resolved")
		}
	}
	return methods, err
}

func (s *Service) observe(err error) {
	if s.Metrics == nil {
		return
	}
	outcome := "placed"
	switch {
	case err == nil:
	case errors.Is(err, tracking.ErrAllocationExhausted):
		outcome = "tracking_exhausted"
	case errors.Is(err, ErrTrackingCodeConflict):
		outcome = "tracking_conflict"
	case errors.Is(err, payment.ErrMethodsUnavailable), errors.Is(err, ErrPaymentMethodNotAllowed):
		outcome = "payment_method"
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrProviderUnavailable):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	s.Metrics.ObserveCheckout(outcome)
}
