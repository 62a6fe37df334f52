package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"provet-system/internal/database/models"
	"provet-system/internal/utils"
)

const AccessTokenCookie = "access_token"

// JWTAuth validates the access token from the HTTP-only cookie set at login, or
// from an Authorization bearer header for clients that do not hold the cookie.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(AccessTokenCookie)
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == "" || tokenStr == authHeader {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "Missing access token",
				})
				return
			}
		}

		claims, err := utils.ParseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid or expired token",
			})
			return
		}

		c.Set("userID", claims.UserId)
		c.Set("username", claims.Username)
		c.Set("accType", claims.AccType)
		c.Next()
	}
}

// RequireAccType guards a route group to the given account types.
func RequireAccType(types ...models.AccType) gin.HandlerFunc {
	return func(c *gin.Context) {
		accType, ok := c.Get("accType")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}

		for _, t := range types {
			if accType == string(t) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "You don't have permission to access this resource",
		})
	}
}

func UserID(c *gin.Context) int64 {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func Username(c *gin.Context) string {
	if v, ok := c.Get("username"); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

func IsAdmin(c *gin.Context) bool {
	accType, _ := c.Get("accType")
	return accType == string(models.AccTypeAdmin) || accType == string(models.AccTypeSuperadmin)
}
