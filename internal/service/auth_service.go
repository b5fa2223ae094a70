// Package service holds the business logic behind the HTTP handlers:
// accounts, prediction history and the admin console.
package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// TokenPair is the result of a login or a refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtService  *auth.JWTService
	passwordCfg *auth.PasswordConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	jwtService *auth.JWTService,
	passwordCfg *auth.PasswordConfig,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtService:  jwtService,
		passwordCfg: passwordCfg,
	}
}

func subjectOf(user *models.User) auth.Subject {
	return auth.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// RegisterUser creates a new patient account
func (s *AuthService) RegisterUser(ctx context.Context, reg *models.UserRegistration) (*models.User, error) {
	if reg.Password != reg.ConfirmPassword {
		return nil, utils.NewValidationError("confirm_password", "Passwords do not match")
	}

	user, err := createAccount(ctx, s.userRepo, s.passwordCfg, accountFields{
		Username: reg.Username,
		Email:    reg.Email,
		Password: reg.Password,
		FullName: reg.FullName,
		Role:     constants.RolePatient,
	})
	if err != nil {
		return nil, err
	}

	utils.LogAuth(constants.LogEventRegister, idString(user.ID), user.Username, true, "")

	return user.Sanitize(), nil
}

// AuthenticateUser verifies credentials and opens a session. The
// identifier may be a username or an email address.
func (s *AuthService) AuthenticateUser(ctx context.Context, creds *models.UserCredentials) (*models.User, *TokenPair, error) {
	identifier := creds.Identifier()
	if identifier == "" {
		return nil, nil, utils.NewValidationError("credentials", "Username or email is required")
	}

	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth(constants.LogEventLogin, "0", identifier, false, "user not found")
			return nil, nil, utils.NewInvalidCredentialsError()
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	match, err := auth.VerifyPassword(creds.Password, user.PasswordHash, user.Salt, s.passwordCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		utils.LogAuth(constants.LogEventLogin, idString(user.ID), user.Username, false, "invalid password")
		return nil, nil, utils.NewInvalidCredentialsError()
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	utils.LogAuth(constants.LogEventLogin, idString(user.ID), user.Username, true, "")

	return user.Sanitize(), tokens, nil
}

// issueTokens mints an access and refresh token and records the session
// of the refresh token.
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	sub := subjectOf(user)

	accessToken, _, err := s.jwtService.GenerateAccessToken(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, refreshJWTID, err := s.jwtService.GenerateRefreshToken(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := models.NewSession(user.ID, refreshJWTID, s.jwtService.GetConfig().RefreshExpiry)
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RefreshTokens rotates a refresh token. The old session is consumed and
// the role claim is re-read from the database.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	jwtID, err := s.jwtService.ParseTokenWithoutValidation(refreshToken)
	if err != nil {
		return nil, utils.NewInvalidTokenError()
	}

	valid, err := s.sessionRepo.IsValidSession(ctx, jwtID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session validity: %w", err)
	}
	if !valid {
		return nil, utils.NewInvalidTokenError()
	}

	claims, err := s.jwtService.ValidateToken(refreshToken, constants.TokenTypeRefresh)
	if err != nil {
		_ = s.sessionRepo.DeleteByJWTID(ctx, jwtID)
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, utils.NewInvalidTokenError()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.sessionRepo.DeleteByJWTID(ctx, jwtID); err != nil {
		log.Warn().
			Err(err).
			Str(constants.ColumnJWTID, jwtID).
			Msg("Failed to delete old session during token refresh")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64(constants.UserIDContextKey, user.ID).
		Str(constants.UsernameContextKey, user.Username).
		Msg("Tokens refreshed successfully")

	return tokens, nil
}

// Logout ends the session of a refresh token. An unknown session counts as
// already logged out.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	jwtID, err := s.jwtService.ParseTokenWithoutValidation(refreshToken)
	if err != nil {
		return utils.NewInvalidTokenError()
	}

	if err := s.sessionRepo.DeleteByJWTID(ctx, jwtID); err != nil {
		if utils.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// LogoutAll ends every session of a user
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	count, err := s.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	log.Info().
		Int64(constants.UserIDContextKey, userID).
		Int64("sessions", count).
		Msg("All sessions ended")

	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx)
}
