package middleware

import (
	"context"                     // Lookup context
	"marketplace/internal/domain" // Importing domain models
	"net/http"                    // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserFinder loads an account by username
type UserFinder interface {
	FindUser(ctx context.Context, username string) (*domain.User, error)
}

// AdminOnlyMiddleware checks the user's role from the store on each request
func AdminOnlyMiddleware(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString(ContextUsername) // Get username from context
		// Check if username exists in context
		if username == "" {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := users.FindUser(c.Request.Context(), username) // Fetch user from store
		if err != nil || !user.IsAdmin() {
			// If user not found, any error or not an admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}
