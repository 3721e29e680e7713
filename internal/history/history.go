// Package history keeps, per client, the orders that client placed so the
// storefront can show them again without an account.
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/models"
)

// IDStore persists the append-only list of order ids per client.
type IDStore interface {
	AppendOrderID(ctx context.Context, clientID string, orderID primitive.ObjectID) error
	OrderIDs(ctx context.Context, clientID string) ([]primitive.ObjectID, error)
}

type OrderFetcher interface {
	OrdersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Order, error)
}

type Cache struct {
	clientID string
	ids      IDStore
	orders   OrderFetcher

	mu          sync.RWMutex
	snapshot    []models.Order
	refreshedAt time.Time
}

func NewCache(clientID string, ids IDStore, orders OrderFetcher) *Cache {
	return &Cache{clientID: clientID, ids: ids, orders: orders}
}

// Record remembers orderID for this client. Ids are never removed.
func (c *Cache) Record(ctx context.Context, orderID primitive.ObjectID) error {
	return c.ids.AppendOrderID(ctx, c.clientID, orderID)
}

// Refresh re-reads every recorded order and replaces the snapshot, newest
// first. On failure the previous snapshot is kept and returned with the error.
func (c *Cache) Refresh(ctx context.Context) ([]models.Order, error) {
	ids, err := c.ids.OrderIDs(ctx, c.clientID)
	if err != nil {
		return c.Orders(), err
	}

	var fresh []models.Order
	if len(ids) > 0 {
		fresh, err = c.orders.OrdersByIDs(ctx, ids)
		if err != nil {
			return c.Orders(), err
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].CreatedAt.After(fresh[j].CreatedAt)
	})

	c.mu.Lock()
	c.snapshot = fresh
	c.refreshedAt = time.Now().UTC()
	c.mu.Unlock()

	return c.Orders(), nil
}

// Orders returns a copy of the last successful refresh.
func (c *Cache) Orders() []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Order, len(c.snapshot))
	copy(out, c.snapshot)
	return out
}

func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// FindByTrackingCode looks only at the last successful refresh.
func (c *Cache) FindByTrackingCode(code string) (models.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, o := range c.snapshot {
		if o.TrackingCode == code {
			return o, true
		}
	}
	return models.Order{}, false
}

// Registry hands out one Cache per client.
type Registry struct {
	ids    IDStore
	orders OrderFetcher

	mu     sync.Mutex
	caches map[string]*Cache
}

func NewRegistry(ids IDStore, orders OrderFetcher) *Registry {
	return &Registry{ids: ids, orders: orders, caches: make(map[string]*Cache)}
}

func (r *Registry) For(clientID string) *Cache {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caches[clientID]
	if !ok {
		c = NewCache(clientID, r.ids, r.orders)
		r.caches[clientID] = c
	}
	return c
}
