package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/models"
)

func TestOrderFilterQueryStatusOnly(t *testing.T) {
	q := orderFilterQuery(OrderFilter{Status: models.OrderStatusShipped})

	assert.Equal(t, bson.M{"status": models.OrderStatusShipped}, q)
}

func TestOrderFilterQuerySearchByID(t *testing.T) {
	id := primitive.NewObjectID()

	q := orderFilterQuery(OrderFilter{Search: " " + id.Hex() + " "})

	assert.Equal(t, id, q["_id"])
	assert.NotContains(t, q, "$or")
}

func TestOrderFilterQuerySearchEscapesFragment(t *testing.T) {
	q := orderFilterQuery(OrderFilter{Search: "a3b.7"})

	or, ok := q["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	tracking := or[2].(bson.M)["trackingCode"].(primitive.Regex)
	assert.Equal(t, `a3b\.7`, tracking.Pattern)
	assert.Equal(t, "i", tracking.Options)
}

func TestRequiredIndexesGuardTrackingCode(t *testing.T) {
	var found bool
	for _, idx := range requiredIndexes() {
		require.NotNil(t, idx.model.Options.Name)
		if idx.collection != colOrders || *idx.model.Options.Name != "trackingCode_unique" {
			continue
		}
		found = true
		require.NotNil(t, idx.model.Options.Unique)
		assert.True(t, *idx.model.Options.Unique)
	}
	assert.True(t, found)
}

func TestProductFilterQuery(t *testing.T) {
	provider := primitive.NewObjectID()

	q := productFilterQuery(ProductFilter{ProviderID: provider, Search: "arroz (1kg)"})

	assert.Equal(t, provider, q["providerId"])
	assert.Equal(t, bson.M{"$ne": true}, q["isDeleted"])
	name := q["name"].(primitive.Regex)
	assert.Equal(t, `arroz \(1kg\)`, name.Pattern)
}
