package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/cart"
	"github.com/Yusei-0/cuba-click/internal/events"
	"github.com/Yusei-0/cuba-click/internal/history"
	"github.com/Yusei-0/cuba-click/internal/models"
	"github.com/Yusei-0/cuba-click/internal/money"
	"github.com/Yusei-0/cuba-click/internal/payment"
	"github.com/Yusei-0/cuba-click/internal/tracking"
)

type fakeStore struct {
	providers map[primitive.ObjectID]models.Provider
	insertErr error
	onInsert  func()
	inserted  []models.Order
	lines     [][]models.OrderLine
}

func (s *fakeStore) TrackingCodeExists(context.Context, string) (bool, error) { return false, nil }

func (s *fakeStore) ProviderByID(_ context.Context, id primitive.ObjectID) (models.Provider, bool, error) {
	p, ok := s.providers[id]
	return p, ok, nil
}

func (s *fakeStore) InsertOrder(_ context.Context, order *models.Order, lines []models.OrderLine) error {
	if s.onInsert != nil {
		s.onInsert()
	}
	if s.insertErr != nil {
		return s.insertErr
	}
	order.ID = primitive.NewObjectID()
	s.inserted = append(s.inserted, *order)
	s.lines = append(s.lines, lines)
	return nil
}

type fakeResolver struct {
	methods []payment.ResolvedMethod
	err     error
}

func (r fakeResolver) Resolve(context.Context, primitive.ObjectID, string) ([]payment.ResolvedMethod, error) {
	if r.err != nil {
		return []payment.ResolvedMethod{}, r.err
	}
	return r.methods, nil
}

type fakeShipping struct {
	cost decimal.Decimal
}

func (s fakeShipping) Cost(_ context.Context, _, _ primitive.ObjectID, currency string) (money.Amount, error) {
	return money.NewNative(s.cost, currency), nil
}

type fixedCodes struct {
	code string
	err  error
}

func (f fixedCodes) EnsureUnique(context.Context, tracking.Checker) (tracking.Allocation, error) {
	if f.err != nil {
		return tracking.Allocation{}, f.err
	}
	return tracking.Allocation{Code: f.code, Attempts: 1}, nil
}

type memHistory struct {
	ids    map[string][]primitive.ObjectID
	orders map[primitive.ObjectID]models.Order
}

func (m *memHistory) AppendOrderID(_ context.Context, clientID string, id primitive.ObjectID) error {
	m.ids[clientID] = append(m.ids[clientID], id)
	return nil
}

func (m *memHistory) OrderIDs(_ context.Context, clientID string) ([]primitive.ObjectID, error) {
	return m.ids[clientID], nil
}

func (m *memHistory) OrdersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Order, error) {
	out := []models.Order{}
	for _, id := range ids {
		if o, ok := m.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       *Service
	store     *fakeStore
	hist      *memHistory
	publisher *recordingPublisher
	provider  primitive.ObjectID
	transfer  payment.ResolvedMethod
}

const client = "client-1"

func newFixture(t *testing.T, resolver fakeResolver, codes fixedCodes) *fixture {
	t.Helper()
	f := &fixture{
		provider: primitive.NewObjectID(),
		hist: &memHistory{
			ids:    map[string][]primitive.ObjectID{},
			orders: map[primitive.ObjectID]models.Order{},
		},
		publisher: &recordingPublisher{},
	}
	f.store = &fakeStore{providers: map[primitive.ObjectID]models.Provider{
		f.provider: {ID: f.provider, Name: "Bodega", Active: true},
	}}

	carts := cart.NewRegistry()
	product := models.Product{
		ID:         primitive.NewObjectID(),
		Name:       "Rice 1kg",
		Price:      50,
		Currency:   "USD",
		ProviderID: f.provider,
		IsActive:   true,
	}
	require.NoError(t, carts.With(client, func(c *cart.Cart) error {
		c.AddLine(product)
		c.AddLine(product)
		return nil
	}))

	f.svc = NewService(Deps{
		Carts:     carts,
		History:   history.NewRegistry(f.hist, f.hist),
		Resolver:  resolver,
		Shipping:  fakeShipping{cost: decimal.NewFromInt(10)},
		Codes:     codes,
		Store:     f.store,
		Publisher: f.publisher,
	})
	return f
}

func transferMethod() payment.ResolvedMethod {
	return payment.ResolvedMethod{
		PaymentMethodID: primitive.NewObjectID(),
		Name:            "Transfer",
		Multiplier:      decimal.RequireFromString("1.25"),
		Currency:        "CUP",
	}
}

func validRequest(methodID primitive.ObjectID) PlaceOrderRequest {
	return PlaceOrderRequest{
		ClientName:      "Ana",
		ClientPhone:     "+53 5555 5555",
		MunicipalityID:  primitive.NewObjectID(),
		Address:         "Calle 23",
		Currency:        "CUP",
		PaymentMethodID: methodID,
	}
}

func TestPlaceOrderPersistsNativeAmounts(t *testing.T) {
	method := transferMethod()
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{method}}, fixedCodes{code: "A3B7K9M2"})

	receipt, err := f.svc.PlaceOrder(context.Background(), client, validRequest(method.PaymentMethodID))
	require.NoError(t, err)

	require.Len(t, f.store.inserted, 1)
	stored := f.store.inserted[0]
	assert.Equal(t, 100.0, stored.ProductSubtotal)
	assert.Equal(t, 10.0, stored.ShippingCost)
	assert.Equal(t, "USD", stored.NativeCurrency)
	assert.Equal(t, "CUP", stored.Currency)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, "A3B7K9M2", stored.TrackingCode)

	require.Len(t, f.store.lines[0], 1)
	assert.Equal(t, 2, f.store.lines[0][0].Quantity)
	assert.Equal(t, 50.0, f.store.lines[0][0].UnitPrice)

	assert.True(t, receipt.Totals.TotalDisplay.Value().Equal(decimal.RequireFromString("137.5")))
	assert.Equal(t, money.Display, receipt.Totals.TotalDisplay.Basis())
	assert.Equal(t, method.PaymentMethodID, receipt.Method.PaymentMethodID)
}

func TestPlaceOrderRecordsHistoryClearsCartAndPublishes(t *testing.T) {
	method := transferMethod()
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{method}}, fixedCodes{code: "A3B7K9M2"})

	receipt, err := f.svc.PlaceOrder(context.Background(), client, validRequest(method.PaymentMethodID))
	require.NoError(t, err)

	assert.Equal(t, []primitive.ObjectID{receipt.Order.ID}, f.hist.ids[client])
	assert.True(t, f.svc.Carts.Snapshot(client).IsEmpty())
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeOrderPlaced, f.publisher.events[0].Type)
	assert.Equal(t, receipt.Order.ID.Hex(), f.publisher.events[0].OrderID)
}

func TestPlaceOrderKeepsLinesAddedDuringCheckout(t *testing.T) {
	method := transferMethod()
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{method}}, fixedCodes{code: "A3B7K9M2"})
	late := models.Product{
		ID:         primitive.NewObjectID(),
		Name:       "Beans 500g",
		Price:      3,
		Currency:   "USD",
		ProviderID: f.provider,
		IsActive:   true,
	}
	f.store.onInsert = func() {
		_ = f.svc.Carts.With(client, func(c *cart.Cart) error {
			c.AddLine(late)
			return nil
		})
	}

	_, err := f.svc.PlaceOrder(context.Background(), client, validRequest(method.PaymentMethodID))
	require.NoError(t, err)

	require.Len(t, f.store.lines[0], 1)
	assert.Equal(t, 2, f.store.lines[0][0].Quantity)
	left := f.svc.Carts.Snapshot(client).Lines()
	require.Len(t, left, 1)
	assert.Equal(t, late.ID, left[0].ProductID)
	assert.Equal(t, 1, left[0].Quantity)
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	method := transferMethod()
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{method}}, fixedCodes{code: "A3B7K9M2"})

	_, err := f.svc.PlaceOrder(context.Background(), "someone-else", validRequest(method.PaymentMethodID))

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.store.inserted)
}

func TestPlaceOrderRejectsMissingFields(t *testing.T) {
	f := newFixture(t, fakeResolver{}, fixedCodes{code: "A3B7K9M2"})

	_, err := f.svc.PlaceOrder(context.Background(), client, PlaceOrderRequest{ClientName: "Ana"})

	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "clientPhone")
	assert.Contains(t, err.Error(), "paymentMethodId")
}

func TestPlaceOrderRejectsMethodOutsideResolvedList(t *testing.T) {
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{transferMethod()}}, fixedCodes{code: "A3B7K9M2"})

	_, err := f.svc.PlaceOrder(context.Background(), client, validRequest(primitive.NewObjectID()))

	assert.ErrorIs(t, err, ErrPaymentMethodNotAllowed)
	assert.Empty(t, f.store.inserted)
}

func TestPlaceOrderFailsWhenMethodsUnavailable(t *testing.T) {
	resolveErr := errors.Join(payment.ErrMethodsUnavailable, errors.New("timeout"))
	f := newFixture(t, fakeResolver{err: resolveErr}, fixedCodes{code: "A3B7K9M2"})

	_, err := f.svc.PlaceOrder(context.Background(), client, validRequest(primitive.NewObjectID()))

	assert.ErrorIs(t, err, payment.ErrMethodsUnavailable)
	assert.Empty(t, f.store.inserted)
}

func TestPlaceOrderRejectsInactiveProvider(t *testing.T) {
	method := transferMethod()
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{method}}, fixedCodes{code: "A3B7K9M2"})
	p := f.store.providers[f.provider]
	p.Active = false
	f.store.providers[f.provider] = p

	_, err := f.svc.PlaceOrder(context.Background(), client, validRequest(method.PaymentMethodID))

	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestPlaceOrderStopsWhenTrackingCodesExhausted(t *testing.T) {
	method := transferMethod()
	exhausted := &tracking.ExhaustedError{Attempts: tracking.MaxAttempts}
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{method}}, fixedCodes{err: exhausted})

	_, err := f.svc.PlaceOrder(context.Background(), client, validRequest(method.PaymentMethodID))

	assert.ErrorIs(t, err, tracking.ErrAllocationExhausted)
	assert.Empty(t, f.store.inserted)
	assert.False(t, f.svc.Carts.Snapshot(client).IsEmpty())
}

func TestPlaceOrderKeepsCartOnTrackingConflict(t *testing.T) {
	method := transferMethod()
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{method}}, fixedCodes{code: "A3B7K9M2"})
	f.store.insertErr = ErrTrackingCodeConflict

	_, err := f.svc.PlaceOrder(context.Background(), client, validRequest(method.PaymentMethodID))

	assert.ErrorIs(t, err, ErrTrackingCodeConflict)
	assert.False(t, f.svc.Carts.Snapshot(client).IsEmpty())
	assert.Empty(t, f.hist.ids[client])
	assert.Empty(t, f.publisher.events)
}

func TestQuoteConvertsWithSelectedMethod(t *testing.T) {
	method := transferMethod()
	f := newFixture(t, fakeResolver{methods: []payment.ResolvedMethod{method}}, fixedCodes{})

	q, err := f.svc.Quote(context.Background(), client, QuoteRequest{
		Currency:        "CUP",
		MunicipalityID:  primitive.NewObjectID(),
		PaymentMethodID: method.PaymentMethodID,
	})
	require.NoError(t, err)

	assert.True(t, q.CanSubmit)
	assert.Empty(t, q.Notice)
	assert.True(t, q.Totals.Converted)
	assert.True(t, q.Totals.TotalDisplay.Value().Equal(decimal.RequireFromString("137.5")))
	assert.True(t, q.Totals.TotalNative.Value().Equal(decimal.NewFromInt(110)))
}

func TestQuoteFallsBackWhenMethodsUnavailable(t *testing.T) {
	f := newFixture(t, fakeResolver{err: payment.ErrMethodsUnavailable}, fixedCodes{})

	q, err := f.svc.Quote(context.Background(), client, QuoteRequest{Currency: "CUP"})
	require.NoError(t, err)

	assert.False(t, q.CanSubmit)
	assert.NotEmpty(t, q.Notice)
	assert.Empty(t, q.Methods)
	assert.False(t, q.Totals.Converted)
	assert.True(t, q.Totals.TotalDisplay.Value().Equal(q.Totals.TotalNative.Value()))
}

func TestQuoteEmptyCart(t *testing.T) {
	f := newFixture(t, fakeResolver{}, fixedCodes{})

	_, err := f.svc.Quote(context.Background(), "nobody", QuoteRequest{Currency: "CUP"})

	assert.ErrorIs(t, err, ErrEmptyCart)
}
