package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/models"
)

type memoryStore struct {
	ids      map[string][]primitive.ObjectID
	orders   map[primitive.ObjectID]models.Order
	fetchErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		ids:    map[string][]primitive.ObjectID{},
		orders: map[primitive.ObjectID]models.Order{},
	}
}

func (m *memoryStore) AppendOrderID(_ context.Context, clientID string, id primitive.ObjectID) error {
	m.ids[clientID] = append(m.ids[clientID], id)
	return nil
}

func (m *memoryStore) OrderIDs(_ context.Context, clientID string) ([]primitive.ObjectID, error) {
	return m.ids[clientID], nil
}

func (m *memoryStore) OrdersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Order, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []models.Order
	for _, id := range ids {
		if o, ok := m.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryStore) put(code string, createdAt time.Time) models.Order {
	o := models.Order{ID: primitive.NewObjectID(), TrackingCode: code, CreatedAt: createdAt}
	m.orders[o.ID] = o
	return o
}

func TestRecordAndRefresh(t *testing.T) {
	store := newMemoryStore()
	now := time.Now()
	older := store.put("AAAAAAAA", now.Add(-time.Hour))
	newer := store.put("BBBBBBBB", now)
	cache := NewCache("client-1", store, store)
	ctx := context.Background()

	require.NoError(t, cache.Record(ctx, older.ID))
	require.NoError(t, cache.Record(ctx, newer.ID))

	orders, err := cache.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.False(t, cache.RefreshedAt().IsZero())

	found, ok := cache.FindByTrackingCode("AAAAAAAA")
	require.True(t, ok)
	assert.Equal(t, older.ID, found.ID)
}

func TestFindByTrackingCodeUsesLastRefreshOnly(t *testing.T) {
	store := newMemoryStore()
	cache := NewCache("client-1", store, store)
	o := store.put("CCCCCCCC", time.Now())
	require.NoError(t, cache.Record(context.Background(), o.ID))

	_, ok := cache.FindByTrackingCode("CCCCCCCC")
	assert.False(t, ok)

	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)
	_, ok = cache.FindByTrackingCode("CCCCCCCC")
	assert.True(t, ok)
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	store := newMemoryStore()
	cache := NewCache("client-1", store, store)
	o := store.put("DDDDDDDD", time.Now())
	require.NoError(t, cache.Record(context.Background(), o.ID))
	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)

	store.fetchErr = errors.New("network down")
	orders, err := cache.Refresh(context.Background())

	assert.Error(t, err)
	require.Len(t, orders, 1)
	_, ok := cache.FindByTrackingCode("DDDDDDDD")
	assert.True(t, ok)
}

func TestRegistryReturnsSameCachePerClient(t *testing.T) {
	store := newMemoryStore()
	r := NewRegistry(store, store)

	assert.Same(t, r.For("a"), r.For("a"))
	assert.NotSame(t, r.For("a"), r.For("b"))
}
