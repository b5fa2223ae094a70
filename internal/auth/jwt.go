package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// JWT errors
var (
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	ErrInvalidTokenClaims   = errors.New("invalid token claims")
)

// Subject is the account a token is issued for.
type Subject struct {
	UserID   int64
	Username string
	Email    string
	Role     string
}

// CustomClaims represents the claims in a JWT token. Role is copied from the
// account at issue time and is not refreshed until the token is reissued.
type CustomClaims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Account returns the account the claims were issued for.
func (c *CustomClaims) Account() Subject {
	return Subject{UserID: c.UserID, Username: c.Username, Email: c.Email, Role: c.Role}
}

// JWTService signs and validates HS256 access and refresh tokens.
type JWTService struct {
	Config *config.JWTSettings
	now    func() time.Time
}

// NewJWTService creates a new JWTService instance
func NewJWTService(cfg *config.JWTSettings) *JWTService {
	return &JWTService{
		Config: cfg,
		now:    time.Now,
	}
}

// GetConfig returns the JWT settings, falling back to defaults when unset.
func (s *JWTService) GetConfig() *config.JWTSettings {
	if s.Config == nil {
		return &config.JWTSettings{
			Expiry:        constants.DefaultJWTExpiry,
			RefreshExpiry: constants.DefaultJWTRefreshExpiry,
			Issuer:        constants.DefaultJWTIssuer,
		}
	}
	return s.Config
}

// GenerateAccessToken issues an access token and returns it with its JWT ID.
func (s *JWTService) GenerateAccessToken(sub Subject) (string, string, error) {
	return s.generateToken(sub, constants.TokenTypeAccess, s.GetConfig().Expiry)
}

// GenerateRefreshToken issues a refresh token and returns it with its JWT ID.
func (s *JWTService) GenerateRefreshToken(sub Subject) (string, string, error) {
	return s.generateToken(sub, constants.TokenTypeRefresh, s.GetConfig().RefreshExpiry)
}

func (s *JWTService) generateToken(sub Subject, tokenType string, expiry time.Duration) (string, string, error) {
	cfg := s.GetConfig()
	if cfg.Secret == "" {
		return "", "", errors.New("jwt secret is not configured")
	}

	jwtID := uuid.New().String()
	now := s.now()

	claims := CustomClaims{
		UserID:    sub.UserID,
		Username:  sub.Username,
		Email:     sub.Email,
		Role:      sub.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   strconv.FormatInt(sub.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jwtID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, jwtID, nil
}

// ValidateToken checks signature, expiry, issuer and token type, and returns
// the claims.
func (s *JWTService) ValidateToken(tokenString string, expectedType string) (*CustomClaims, error) {
	cfg := s.GetConfig()

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, utils.NewExpiredTokenError()
		}
		return nil, utils.NewInvalidTokenError()
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, utils.NewInvalidTokenError()
	}

	if claims.TokenType != expectedType {
		return nil, utils.NewInvalidTokenError()
	}

	if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
		return nil, utils.NewInvalidTokenError()
	}

	return claims, nil
}

// ParseTokenWithoutValidation returns the JWT ID of a token without checking
// its signature or expiry. Used to revoke sessions of expired tokens.
func (s *JWTService) ParseTokenWithoutValidation(tokenString string) (string, error) {
	claims := &CustomClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", ErrInvalidTokenClaims
	}
	if claims.ID == "" {
		return "", ErrInvalidTokenClaims
	}
	return claims.ID, nil
}

// RefreshTokens validates a refresh token and issues a new token pair for
// sub. The refresh token must belong to sub.
//
// Returns:
//   - access token and its JWT ID
//   - refresh token and its JWT ID
//   - an error if the refresh token is invalid or belongs to someone else
func (s *JWTService) RefreshTokens(refreshToken string, sub Subject) (string, string, string, string, error) {
	claims, err := s.ValidateToken(refreshToken, constants.TokenTypeRefresh)
	if err != nil {
		return "", "", "", "", err
	}

	if claims.UserID != sub.UserID {
		return "", "", "", "", utils.NewInvalidTokenError()
	}

	accessToken, accessJWTID, err := s.GenerateAccessToken(sub)
	if err != nil {
		return "", "", "", "", err
	}

	newRefreshToken, refreshJWTID, err := s.GenerateRefreshToken(sub)
	if err != nil {
		return "", "", "", "", err
	}

	return accessToken, accessJWTID, newRefreshToken, refreshJWTID, nil
}
