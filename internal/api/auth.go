package api

import (
	"context"                      // Request context
	"errors"                       // Error matching
	"marketplace/internal/domain"  // Importing domain models
	"marketplace/internal/service" // Account manager
	"marketplace/internal/utils"   // Utility functions
	"net/http"                     // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Role     string `json:"role" binding:"required"`     // Admin or User
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string `json:"token"` // JWT token
	Role  string `json:"role"`  // Role the token is valid for
}

// RegisterHandler registers a buyer account
func RegisterHandler(accounts *service.Accounts) gin.HandlerFunc {
	return registerHandler(accounts.RegisterUser, "User registered successfully")
}

// RegisterAdminHandler registers a seller account, only reachable by admins
func RegisterAdminHandler(accounts *service.Accounts) gin.HandlerFunc {
	return registerHandler(accounts.RegisterAdmin, "Admin registered successfully")
}

type registerFunc func(ctx context.Context, username, password string) (*domain.User, error)

func registerHandler(register registerFunc, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Create the account, duplicates come back as a conflict
		user, err := register(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": message, "username": user.Username, "role": user.Role})
	}
}

// LoginHandler authenticates a user for a role and returns a JWT token
func LoginHandler(accounts *service.Accounts, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		role, ok := domain.ParseRole(req.Role) // Accept Admin / User in any common casing
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be Admin or User"})
			return
		}
		user, err := accounts.Authenticate(c.Request.Context(), role, req.Username, req.Password)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		case errors.Is(err, domain.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
			return
		case err != nil:
			respondError(c, err)
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.Username, user.Role, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, Role: user.Role})
	}
}
