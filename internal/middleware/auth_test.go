package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "test-secret"

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return "Bearer " + signed
}

func serve(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AdminAuth(secret), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"wrong secret", signToken(t, "other", jwt.MapClaims{"role": "admin"}), http.StatusUnauthorized},
		{"customer role", signToken(t, secret, jwt.MapClaims{"role": "customer"}), http.StatusForbidden},
		{"admin", signToken(t, secret, jwt.MapClaims{"role": "admin"}), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(r, "/admin", map[string]string{"Authorization": tc.header})
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestClientIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/cart", ClientIdentity(secret), func(c *gin.Context) {
		c.String(http.StatusOK, ClientID(c))
	})
	userID := primitive.NewObjectID()

	t.Run("anonymous header", func(t *testing.T) {
		rec := serve(r, "/cart", map[string]string{ClientIDHeader: "device-1234"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anon:device-1234", rec.Body.String())
	})

	t.Run("user token wins", func(t *testing.T) {
		rec := serve(r, "/cart", map[string]string{
			ClientIDHeader:  "device-1234",
			"Authorization": signToken(t, secret, jwt.MapClaims{"userId": userID.Hex()}),
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user:"+userID.Hex(), rec.Body.String())
	})

	t.Run("bad token is not downgraded", func(t *testing.T) {
		rec := serve(r, "/cart", map[string]string{
			ClientIDHeader:  "device-1234",
			"Authorization": signToken(t, "other", jwt.MapClaims{"userId": userID.Hex()}),
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing identity", func(t *testing.T) {
		rec := serve(r, "/cart", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("short header", func(t *testing.T) {
		rec := serve(r, "/cart", map[string]string{ClientIDHeader: "abc"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
