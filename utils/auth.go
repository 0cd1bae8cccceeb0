// utils/auth.go
package utils

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cliently-backend/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken mints an HS256 bearer token carrying the user and business
// identity. Handlers read both from the Gin context, never from the token
// directly.
func GenerateToken(userID, businessID string) (string, error) {
	cfg := config.AppConfig
	if cfg.JWTSecret == "" {
		return "", errors.New("JWT secret is not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        userID,
		"businessId": businessID,
		"iat":        now.Unix(),
		"exp":        now.Add(time.Duration(cfg.JWTExpiryHours) * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// AuthMiddleware validates the bearer token and stashes the caller's
// identity under the "userId" and "businessId" context keys.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		tokenString := header
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			tokenString = header[7:]
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(config.AppConfig.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		userID, _ := claims["sub"].(string)
		businessID, _ := claims["businessId"].(string)
		if userID == "" || businessID == "" {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		c.Set("userId", userID)
		c.Set("businessId", businessID)
		c.Next()
	}
}
