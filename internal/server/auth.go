package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/database"
)

const userIDKey = "levelup_user_id"

// AuthMiddleware resolves the bearer token into a user id stored on the
// context
func AuthMiddleware(tokens Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" || tokens == nil {
			errorJSON(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := tokens.UserID(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				errorJSON(c, http.StatusUnauthorized, "Unauthorized")
				return
			}
			errorJSON(c, http.StatusInternalServerError, "authentication failed")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user of the request
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
