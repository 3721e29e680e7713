package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/database"
	"github.com/Yusei-0/cuba-click/internal/models"
)

func ListExchangeRates(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/exchange-rates"
		defer handlePanic(c, route)

		rates, err := store.ListExchangeRates(c.Request.Context())
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, rates)
	}
}

type createExchangeRateRequest struct {
	SourceCurrencyID           string  `json:"sourceCurrencyId" binding:"required"`
	SourcePaymentMethodID      string  `json:"sourcePaymentMethodId" binding:"required"`
	DestinationCurrencyID      string  `json:"destinationCurrencyId" binding:"required"`
	DestinationPaymentMethodID string  `json:"destinationPaymentMethodId" binding:"required"`
	Multiplier                 float64 `json:"multiplier" binding:"required,gt=0"`
}

func CreateExchangeRate(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/exchange-rates"
		defer handlePanic(c, route)

		var req createExchangeRateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ids := make([]primitive.ObjectID, 4)
		for i, raw := range []string{
			req.SourceCurrencyID, req.SourcePaymentMethodID,
			req.DestinationCurrencyID, req.DestinationPaymentMethodID,
		} {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid id")
				return
			}
			ids[i] = id
		}

		ctx := c.Request.Context()
		for _, pair := range [][2]primitive.ObjectID{{ids[0], ids[1]}, {ids[2], ids[3]}} {
			ok, err := referencesExist(ctx, store, pair[0], pair[1])
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "unknown currency or payment method")
				return
			}
		}

		rate, err := store.InsertExchangeRate(ctx, models.ExchangeRate{
			SourceCurrencyID:           ids[0],
			SourcePaymentMethodID:      ids[1],
			DestinationCurrencyID:      ids[2],
			DestinationPaymentMethodID: ids[3],
			Multiplier:                 req.Multiplier,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusCreated, rate)
	}
}

type updateExchangeRateRequest struct {
	Multiplier float64 `json:"multiplier" binding:"required,gt=0"`
}

func UpdateExchangeRate(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/exchange-rates/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}
		var req updateExchangeRateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		rate, err := store.UpdateExchangeRateMultiplier(c.Request.Context(), id, req.Multiplier)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "exchange rate not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, rate)
	}
}

func DeleteExchangeRate(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/exchange-rates/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		err = store.DeleteExchangeRate(c.Request.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "exchange rate not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "exchange rate deleted"})
	}
}
