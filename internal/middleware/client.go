package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ClientIDHeader = "X-Client-ID"
	clientIDKey    = "clientId"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// ClientIdentity resolves who owns the cart and order history for a
// storefront request. A valid user token wins and maps to "user:<id>";
// otherwise the anonymous X-Client-ID header is required.
func ClientIdentity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); strings.TrimSpace(auth) != "" {
			claims, err := parseBearer(auth, secret)
			if err != nil {
				log.WithField("path", c.FullPath()).WithError(err).Warn("user token rejected")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			userIDValue, _ := claims["userId"].(string)
			userID, err := primitive.ObjectIDFromHex(strings.TrimSpace(userIDValue))
			if err != nil {
				log.WithField("path", c.FullPath()).Warn("userId claim missing or invalid")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.Set(clientIDKey, "user:"+userID.Hex())
			c.Next()
			return
		}

		clientID := strings.TrimSpace(c.GetHeader(ClientIDHeader))
		if !clientIDPattern.MatchString(clientID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing or invalid " + ClientIDHeader + " header"})
			return
		}
		c.Set(clientIDKey, "anon:"+clientID)
		c.Next()
	}
}

// ClientID returns the identity set by ClientIdentity, or "" outside it.
func ClientID(c *gin.Context) string {
	return c.GetString(clientIDKey)
}
