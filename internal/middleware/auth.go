package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"split-bill/internal/models"
)

// AuthMiddleware validates the bearer token, loads the user and places the
// actor identity (user_id, is_superuser) into the request context.
func AuthMiddleware(secret string, db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			log.Error("missing or invalid Authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				log.Error("unexpected signing method")
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			log.Error("invalid token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			log.Error("invalid claims")
			c.Abort()
			return
		}

		uidFloat, ok := claims["uid"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "uid missing or invalid"})
			log.Error("uid missing or invalid")
			c.Abort()
			return
		}
		uid := uint(uidFloat)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			log.Error("token for unknown user", "uid", uid)
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("is_superuser", user.Superuser)
		c.Next()
	}
}
