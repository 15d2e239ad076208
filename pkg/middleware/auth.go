package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/discovery-service/pkg/jwt"
)

const (
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
)

// Identity returns a Gin middleware that derives the caller identity from the
// bearer token without verifying it. It never rejects a request: anonymous or
// malformed credentials are treated as the guest identity.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(UserIDKey, jwt.IdentityFromToken(c.GetHeader(AuthHeaderKey)))
		c.Next()
	}
}

// GetUserID extracts the identity from Gin context.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(UserIDKey); exists {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	return jwt.Guest
}
