package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Yusei-0/cuba-click/internal/database"
	"github.com/Yusei-0/cuba-click/internal/models"
)

type ProductCatalog interface {
	ProductFinder
	ListProducts(ctx context.Context, filter database.ProductFilter) ([]models.Product, error)
}

/*
GET /products
- providerId and search are optional
- pagination only applies when both page and limit are given
*/
func GetProducts(catalog ProductCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		providerID, err := parseOptionalObjectID(c.Query("providerId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid providerId")
			return
		}
		filter := database.ProductFilter{ProviderID: providerID, Search: c.Query("search")}

		pageStr, limitStr := c.Query("page"), c.Query("limit")
		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}
			filter.Page, filter.Limit = page, limit
		}

		products, err := catalog.ListProducts(c.Request.Context(), filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
