package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/priya-raman/vitacheck-labs-api/config"
	"github.com/priya-raman/vitacheck-labs-api/models"
	"github.com/priya-raman/vitacheck-labs-api/services"
)

// RequireAuth resolves the caller from the Authorization bearer token.
// The token must verify as a JWT and still have a live session row; the
// matching user is stored in the gin context for handlers.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := services.ParseSessionToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		db := config.GetDB()

		// The session row is the source of truth: a signed token that was
		// logged out (row deleted) or expired is rejected.
		var session models.Session
		if err := db.Where("token = ? AND user_id = ? AND expires_at > ?", tokenString, userID, time.Now()).
			First(&session).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, session.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Set("current_user", user)
		c.Set("session_id", session.ID)

		c.Next()
	}
}

// GetCurrentUser extracts the authenticated user from the gin context
func GetCurrentUser(c *gin.Context) (models.User, error) {
	value, exists := c.Get("current_user")
	if !exists {
		return models.User{}, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}

	user, ok := value.(models.User)
	if !ok {
		return models.User{}, &AuthError{Code: "INVALID_USER", Message: "User in context has unexpected type"}
	}

	return user, nil
}

// GetSessionID extracts the current session ID from the gin context
func GetSessionID(c *gin.Context) (uint, error) {
	value, exists := c.Get("session_id")
	if !exists {
		return 0, &AuthError{Code: "MISSING_SESSION", Message: "Session not found in context"}
	}

	id, ok := value.(uint)
	if !ok {
		return 0, &AuthError{Code: "INVALID_SESSION", Message: "Session in context has unexpected type"}
	}

	return id, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
