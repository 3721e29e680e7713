package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/database"
	"github.com/Yusei-0/cuba-click/internal/models"
)

// AdminStore is what the admin console API reads and writes.
type AdminStore interface {
	BaseConfig(ctx context.Context) (models.BaseConfig, error)
	SetBaseConfig(ctx context.Context, cfg models.BaseConfig) (models.Setting, error)
	CurrenciesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Currency, error)
	PaymentMethodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.PaymentMethod, error)

	ListExchangeRates(ctx context.Context) ([]models.ExchangeRateView, error)
	InsertExchangeRate(ctx context.Context, rate models.ExchangeRate) (models.ExchangeRate, error)
	UpdateExchangeRateMultiplier(ctx context.Context, id primitive.ObjectID, multiplier float64) (models.ExchangeRate, error)
	DeleteExchangeRate(ctx context.Context, id primitive.ObjectID) error

	ListOrders(ctx context.Context, filter database.OrderFilter) (database.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (models.Order, error)
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
}

// referencesExist checks that a currency and payment method pair points at
// real documents.
func referencesExist(ctx context.Context, store AdminStore, currencyID, methodID primitive.ObjectID) (bool, error) {
	currencies, err := store.CurrenciesByIDs(ctx, []primitive.ObjectID{currencyID})
	if err != nil || len(currencies) == 0 {
		return false, err
	}
	methods, err := store.PaymentMethodsByIDs(ctx, []primitive.ObjectID{methodID})
	if err != nil {
		return false, err
	}
	return len(methods) > 0, nil
}

func GetBaseConfig(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/config/base"
		defer handlePanic(c, route)

		cfg, err := store.BaseConfig(c.Request.Context())
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"configured": cfg.IsSet(), "value": cfg})
	}
}

type baseConfigRequest struct {
	CurrencyID      string `json:"currencyId" binding:"required"`
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
}

func UpdateBaseConfig(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/config/base"
		defer handlePanic(c, route)

		var req baseConfigRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		currencyID, err := primitive.ObjectIDFromHex(req.CurrencyID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid currencyId")
			return
		}
		methodID, err := primitive.ObjectIDFromHex(req.PaymentMethodID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid paymentMethodId")
			return
		}

		ok, err := referencesExist(c.Request.Context(), store, currencyID, methodID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "unknown currency or payment method")
			return
		}

		setting, err := store.SetBaseConfig(c.Request.Context(), models.BaseConfig{
			CurrencyID:      currencyID,
			PaymentMethodID: methodID,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, setting)
	}
}
