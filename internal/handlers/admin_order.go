package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/database"
	"github.com/Yusei-0/cuba-click/internal/events"
	"github.com/Yusei-0/cuba-click/internal/models"
)

func ListOrders(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination")
			return
		}
		status := models.OrderStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		result, err := store.ListOrders(c.Request.Context(), database.OrderFilter{
			Status: status,
			Search: c.Query("search"),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type updateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func UpdateOrderStatus(store AdminStore, publisher events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}
		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if !req.Status.Valid() {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		order, err := store.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := publisher.Publish(c.Request.Context(), events.NewOrderEvent(events.TypeOrderStatusChanged, order)); err != nil {
			log.WithField("route", route).WithError(err).Warn("status event not published")
		}
		c.JSON(http.StatusOK, order)
	}
}

func DeleteOrder(store AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		err = store.DeleteOrder(c.Request.Context(), orderID)
		if errors.Is(err, database.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}
