package middleware

import (
	"net/http"
	"strings"

	"github.com/clipstream/backend/token"
	"github.com/gin-gonic/gin"
)

func bearerOrCookie(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("accessToken"); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth validates the access token and puts the user id in the request
// context. All failures are 401.
func RequireAuth(tm *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerOrCookie(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"statusCode": http.StatusUnauthorized,
				"message":    "missing access token",
			})
			return
		}

		userID, err := tm.Verify(tokenStr, token.Access)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"statusCode": http.StatusUnauthorized,
				"message":    "invalid or expired token",
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// OptionalAuth sets the user id when a valid access token is present but
// never rejects the request.
func OptionalAuth(tm *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := bearerOrCookie(c); tokenStr != "" {
			if userID, err := tm.Verify(tokenStr, token.Access); err == nil {
				c.Set("userID", userID)
			}
		}
		c.Next()
	}
}
