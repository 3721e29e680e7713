package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Yusei-0/cuba-click/internal/cart"
	"github.com/Yusei-0/cuba-click/internal/middleware"
	"github.com/Yusei-0/cuba-click/internal/models"
	"github.com/Yusei-0/cuba-click/internal/money"
	"github.com/Yusei-0/cuba-click/internal/payment"
	"github.com/Yusei-0/cuba-click/internal/pricing"
)

type MethodResolver interface {
	Resolve(ctx context.Context, providerID primitive.ObjectID, currency string) ([]payment.ResolvedMethod, error)
}

type ProductFinder interface {
	ProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, bool, error)
}

func GetPaymentMethods(resolver MethodResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payment-methods"
		defer handlePanic(c, route)

		providerID, err := primitive.ObjectIDFromHex(c.Query("providerId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid providerId")
			return
		}
		currency := strings.TrimSpace(c.Query("currency"))
		if currency == "" {
			respondWithError(c, http.StatusBadRequest, route, "currency is required")
			return
		}

		methods, err := resolver.Resolve(c.Request.Context(), providerID, currency)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"methods": methods, "notice": payment.ErrMethodsUnavailable.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"methods": methods})
	}
}

/*
GET /shipping?providerId=&currency=
- every municipality with the provider's delivery cost
- currency is the cart's native currency; missing rows cost zero
*/
func GetShippingTable(store pricing.MunicipalityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /shipping"
		defer handlePanic(c, route)

		providerID, err := primitive.ObjectIDFromHex(c.Query("providerId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid providerId")
			return
		}
		currency := strings.TrimSpace(c.Query("currency"))
		if currency == "" {
			respondWithError(c, http.StatusBadRequest, route, "currency is required")
			return
		}

		table, err := pricing.ShippingTable(c.Request.Context(), store, providerID, currency)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, table)
	}
}

/* =========================
   CART
========================= */

type cartView struct {
	Lines         []cart.Line   `json:"lines"`
	ProviderID    string        `json:"providerId,omitempty"`
	TotalQuantity int           `json:"totalQuantity"`
	Total         *money.Amount `json:"total,omitempty"`
	Replaced      bool          `json:"replaced,omitempty"`
}

func newCartView(c *cart.Cart) (cartView, error) {
	view := cartView{Lines: c.Lines(), TotalQuantity: c.TotalQuantity()}
	if id, ok := c.ProviderID(); ok {
		view.ProviderID = id.Hex()
		total, err := c.TotalPrice()
		if err != nil {
			return cartView{}, err
		}
		view.Total = &total
	}
	return view, nil
}

func respondWithCart(c *gin.Context, route string, carts *cart.Registry, replaced bool) {
	view, err := newCartView(carts.Snapshot(middleware.ClientID(c)))
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "could not price the cart")
		return
	}
	view.Replaced = replaced
	c.JSON(http.StatusOK, view)
}

func GetCart(carts *cart.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)
		respondWithCart(c, route, carts, false)
	}
}

type addCartLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func AddCartLine(carts *cart.Registry, products ProductFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/lines"
		defer handlePanic(c, route)

		var req addCartLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		product, found, err := products.ProductByID(c.Request.Context(), productID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !found {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if !product.Purchasable() {
			respondWithError(c, http.StatusConflict, route, "product is not available")
			return
		}

		var replaced bool
		_ = carts.With(middleware.ClientID(c), func(ct *cart.Cart) error {
			replaced = ct.AddLine(product)
			return nil
		})
		respondWithCart(c, route, carts, replaced)
	}
}

type updateCartLineRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func UpdateCartLine(carts *cart.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/lines/:productId"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}
		var req updateCartLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		_ = carts.With(middleware.ClientID(c), func(ct *cart.Cart) error {
			ct.SetQuantity(productID, *req.Quantity)
			return nil
		})
		respondWithCart(c, route, carts, false)
	}
}

func RemoveCartLine(carts *cart.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/lines/:productId"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}
		_ = carts.With(middleware.ClientID(c), func(ct *cart.Cart) error {
			ct.RemoveLine(productID)
			return nil
		})
		respondWithCart(c, route, carts, false)
	}
}

func ClearCart(carts *cart.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"
		defer handlePanic(c, route)

		_ = carts.With(middleware.ClientID(c), func(ct *cart.Cart) error {
			ct.Clear()
			return nil
		})
		respondWithCart(c, route, carts, false)
	}
}
