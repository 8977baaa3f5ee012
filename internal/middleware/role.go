package middleware

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// RoleRequired lets a request through only when its token was issued for role
func RoleRequired(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Role is set by JWTAuthMiddleware from the token claims
		if c.GetString(ContextRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "This action requires the " + role + " role"})
			return
		}
		c.Next() // Role matches, continue
	}
}
