// Package handlers provides the HTTP request handlers of the HeartRisk API.
// Handlers depend on the small service interfaces declared here so they can
// be tested against mocks.
package handlers

import (
	"context"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/service"
)

// AuthServiceInterface defines the methods required from the authentication service.
type AuthServiceInterface interface {
	// RegisterUser creates a patient account.
	//
	// Returns:
	//   - The newly created user
	//   - A validation or duplicate error when the registration is rejected
	RegisterUser(ctx context.Context, reg *models.UserRegistration) (*models.User, error)

	// AuthenticateUser checks credentials and opens a session.
	//
	// Returns:
	//   - The authenticated user
	//   - The access and refresh tokens of the new session
	//   - An invalid-credentials error when the password does not match
	AuthenticateUser(ctx context.Context, creds *models.UserCredentials) (*models.User, *service.TokenPair, error)

	// RefreshTokens exchanges a refresh token for a new token pair. The
	// old session is closed.
	RefreshTokens(ctx context.Context, refreshToken string) (*service.TokenPair, error)

	// Logout closes the session of refreshToken.
	Logout(ctx context.Context, refreshToken string) error

	// LogoutAll closes every session of the user.
	LogoutAll(ctx context.Context, userID int64) error
}

// JWTServiceInterface exposes the token lifetimes the handlers put into
// cookies and responses.
type JWTServiceInterface interface {
	GetConfig() *config.JWTSettings
}
