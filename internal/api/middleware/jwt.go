package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roksva123/kinerja-planner/internal/identity"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// JWTAuth accepts "Authorization: Bearer <token>". Websocket clients that
// cannot set headers may pass ?token= instead.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := identity.ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

func bearer(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		if q := c.Query("token"); q != "" {
			return q, true
		}
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserID returns the authenticated user set by JWTAuth.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
