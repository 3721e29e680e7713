package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Yusei-0/cuba-click/internal/checkout"
	"github.com/Yusei-0/cuba-click/internal/history"
	"github.com/Yusei-0/cuba-click/internal/middleware"
	"github.com/Yusei-0/cuba-click/internal/payment"
	"github.com/Yusei-0/cuba-click/internal/tracking"
)

type CheckoutService interface {
	Quote(ctx context.Context, clientID string, req checkout.QuoteRequest) (checkout.Quote, error)
	PlaceOrder(ctx context.Context, clientID string, req checkout.PlaceOrderRequest) (checkout.Receipt, error)
}

/* =========================
   REQUEST DTOs
========================= */

type quoteRequest struct {
	Currency        string `json:"currency" binding:"required"`
	MunicipalityID  string `json:"municipalityId"`
	PaymentMethodID string `json:"paymentMethodId"`
}

type createOrderRequest struct {
	ClientName      string `json:"clientName" binding:"required"`
	ClientPhone     string `json:"clientPhone" binding:"required"`
	ClientIDNumber  string `json:"clientIdNumber"`
	MunicipalityID  string `json:"municipalityId" binding:"required"`
	Address         string `json:"address" binding:"required"`
	Currency        string `json:"currency" binding:"required"`
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
}

/* =========================
   QUOTE
========================= */

func QuoteCheckout(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout/quote"
		defer handlePanic(c, route)

		var req quoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		municipalityID, err := parseOptionalObjectID(req.MunicipalityID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid municipalityId")
			return
		}
		methodID, err := parseOptionalObjectID(req.PaymentMethodID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid paymentMethodId")
			return
		}

		quote, err := svc.Quote(c.Request.Context(), middleware.ClientID(c), checkout.QuoteRequest{
			Currency:        req.Currency,
			MunicipalityID:  municipalityID,
			PaymentMethodID: methodID,
		})
		if errors.Is(err, checkout.ErrEmptyCart) {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err != nil {
			log.WithField("route", route).WithError(err).Error("quote failed")
			respondWithError(c, http.StatusInternalServerError, route, "could not price the order")
			return
		}
		c.JSON(http.StatusOK, quote)
	}
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		municipalityID, err := parseOptionalObjectID(req.MunicipalityID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid municipalityId")
			return
		}
		methodID, err := parseOptionalObjectID(req.PaymentMethodID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid paymentMethodId")
			return
		}

		receipt, err := svc.PlaceOrder(c.Request.Context(), middleware.ClientID(c), checkout.PlaceOrderRequest{
			ClientName:      req.ClientName,
			ClientPhone:     req.ClientPhone,
			ClientIDNumber:  req.ClientIDNumber,
			MunicipalityID:  municipalityID,
			Address:         req.Address,
			Currency:        req.Currency,
			PaymentMethodID: methodID,
		})
		if err != nil {
			respondPlaceOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":      receipt.Order.ID.Hex(),
			"trackingCode": receipt.Order.TrackingCode,
			"order":        receipt.Order,
			"method":       receipt.Method,
			"totals":       receipt.Totals,
			"message":      "order created",
		})
	}
}

func respondPlaceOrderError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, checkout.ErrInvalidRequest), errors.Is(err, checkout.ErrEmptyCart):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, checkout.ErrProviderUnavailable):
		respondWithError(c, http.StatusConflict, route, err.Error())
	case errors.Is(err, checkout.ErrPaymentMethodNotAllowed):
		respondWithError(c, http.StatusUnprocessableEntity, route, err.Error())
	case errors.Is(err, payment.ErrMethodsUnavailable):
		respondWithError(c, http.StatusServiceUnavailable, route, payment.ErrMethodsUnavailable.Error())
	case errors.Is(err, tracking.ErrAllocationExhausted):
		log.WithField("route", route).WithError(err).Error("tracking code allocation exhausted")
		respondWithError(c, http.StatusServiceUnavailable, route, "could not allocate a tracking code, try again")
	case errors.Is(err, checkout.ErrTrackingCodeConflict):
		log.WithField("route", route).WithError(err).Warn("tracking code taken at insert")
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": "tracking code collision, submit the order again",
			"retry": true,
		})
	default:
		log.WithField("route", route).WithError(err).Error("order placement failed")
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}

/* =========================
   ORDER HISTORY
========================= */

func GetOrderHistory(histories *history.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/history"
		defer handlePanic(c, route)

		cache := histories.For(middleware.ClientID(c))
		orders, err := cache.Refresh(c.Request.Context())
		if err != nil {
			log.WithField("route", route).WithError(err).Warn("history refresh failed, serving last snapshot")
			c.JSON(http.StatusOK, gin.H{
				"orders":      orders,
				"refreshedAt": refreshedAt(cache.RefreshedAt()),
				"notice":      "order history could not be refreshed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"orders":      orders,
			"refreshedAt": refreshedAt(cache.RefreshedAt()),
		})
	}
}

func refreshedAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// TrackOrder finds one of the client's own orders by tracking code.
func TrackOrder(histories *history.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/track/:code"
		defer handlePanic(c, route)

		code := tracking.Normalize(c.Param("code"))
		if !tracking.IsValid(code) {
			respondWithError(c, http.StatusBadRequest, route, "invalid tracking code")
			return
		}

		cache := histories.For(middleware.ClientID(c))
		if order, ok := cache.FindByTrackingCode(code); ok {
			c.JSON(http.StatusOK, order)
			return
		}
		if _, err := cache.Refresh(c.Request.Context()); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "order history unavailable")
			return
		}
		order, ok := cache.FindByTrackingCode(code)
		if !ok {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
