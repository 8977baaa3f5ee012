package utils

import (
	"errors" // Error values
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// TokenTTL is how long a login token stays valid
const TokenTTL = 24 * time.Hour

// JWT Claims
type Claims struct {
	Username             string `json:"username"` // Custom claim for the username
	Role                 string `json:"role"`     // Role the user logged in as
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a JWT token for a given user
func GenerateJWT(username, role, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty") // Refuse to sign with an empty key
	}
	now := time.Now()
	// Set token claims
	claims := Claims{
		Username: username, // Custom claim for the username
		Role:     role,     // Custom claim for the role
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,                              // Token subject
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)), // Token expires in 24 hours
			IssuedAt:  jwt.NewNumericDate(now),               // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Username != "" {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrSignatureInvalid
}
