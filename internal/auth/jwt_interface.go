package auth

import (
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
)

// JWTValidator is the token surface the HTTP layer depends on.
type JWTValidator interface {
	// ValidateToken validates a JWT token and returns its claims if valid
	ValidateToken(tokenString string, expectedType string) (*CustomClaims, error)

	// ParseTokenWithoutValidation extracts the JWT ID without verifying the token
	ParseTokenWithoutValidation(tokenString string) (string, error)

	// GetConfig returns the JWT settings configuration
	GetConfig() *config.JWTSettings
}

var _ JWTValidator = (*JWTService)(nil)
