package handlers

import (
	"net/http"
	"strings"

	"github.com/devdual/BattleRoomManagerService/internal/jwt"
	"github.com/gin-gonic/gin"
)

const ctxUserID = "userId"

// Auth validates the bearer token and stashes the caller's identity. Room
// scoping is not checked here; the services re-verify membership on every
// operation.
func Auth(jwtManager *jwt.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "not authorized"})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, err := jwtManager.ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "bad token"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(string)
	return id
}
