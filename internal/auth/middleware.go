// Package auth authenticates requests with JWTs, hashes passwords and decides
// which caller may perform which action.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

// IdentityContextKey holds the authenticated Identity of a request.
const IdentityContextKey ContextKey = "identity"

// AuthProvider authenticates a request.
type AuthProvider interface {
	// Authenticate returns the caller's identity, or an error when the
	// request carries no valid credentials.
	Authenticate(r *http.Request) (Identity, error)
}

// JWTAuthProvider authenticates bearer access tokens.
type JWTAuthProvider struct {
	jwtService JWTValidator
}

// NewJWTAuthProvider creates a new JWTAuthProvider with the specified JWT validator.
func NewJWTAuthProvider(jwtService JWTValidator) *JWTAuthProvider {
	return &JWTAuthProvider{
		jwtService: jwtService,
	}
}

// Authenticate reads the token from the Authorization header, or from the
// auth cookie when the header is absent.
func (p *JWTAuthProvider) Authenticate(r *http.Request) (Identity, error) {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		cookie, err := r.Cookie(constants.AuthTokenCookie)
		if err != nil || cookie.Value == "" {
			return Identity{}, utils.ErrUnauthorized
		}
		authHeader = constants.BearerTokenPrefix + cookie.Value
	}

	if !strings.HasPrefix(authHeader, constants.BearerTokenPrefix) {
		return Identity{}, utils.ErrUnauthorized
	}

	token := strings.TrimPrefix(authHeader, constants.BearerTokenPrefix)

	claims, err := p.jwtService.ValidateToken(token, constants.TokenTypeAccess)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		UserID:        claims.UserID,
		Username:      claims.Username,
		Email:         claims.Email,
		Role:          claims.Role,
		Authenticated: true,
	}, nil
}

// authenticate tries each provider in order and returns the first identity.
func authenticate(r *http.Request, providers []AuthProvider) (Identity, error) {
	lastErr := utils.ErrUnauthorized
	for _, provider := range providers {
		id, err := provider.Authenticate(r)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	return Identity{}, lastErr
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// RequireAuth rejects requests no provider can authenticate.
func RequireAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID, _ := GetRequestID(r)

			id, err := authenticate(r, providers)
			if err != nil {
				log.Info().
					Err(err).
					Str(constants.RequestIDContextKey, requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Authentication failed")

				writeAuthError(w, err)
				return
			}

			log.Debug().
				Int64(constants.UserIDContextKey, id.UserID).
				Str(constants.RoleContextKey, id.Role).
				Str(constants.RequestIDContextKey, requestID).
				Msg("User authenticated")

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches an identity when the request carries valid
// credentials and otherwise continues anonymously.
func OptionalAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, providers)
			if err != nil {
				if !errors.Is(err, utils.ErrUnauthorized) {
					log.Debug().Err(err).Str("path", r.URL.Path).Msg("Ignoring invalid credentials on optional route")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	var appErr *utils.AppError
	switch {
	case errors.As(err, &appErr):
		utils.ErrorFromAppError(w, appErr)
	case errors.Is(err, utils.ErrUnauthorized):
		utils.Unauthorized(w, constants.MsgAuthRequired)
	default:
		utils.Error(w, http.StatusUnauthorized, constants.CodeAuthenticationFailed, constants.MsgAuthRequired, nil)
	}
}

// GetIdentity returns the caller of the request. Anonymous callers get the
// zero Identity.
func GetIdentity(r *http.Request) Identity {
	id, _ := r.Context().Value(IdentityContextKey).(Identity)
	return id
}

// GetUserID returns the authenticated user ID.
func GetUserID(r *http.Request) (int64, bool) {
	id := GetIdentity(r)
	return id.UserID, id.Authenticated
}

// GetUsername returns the authenticated username.
func GetUsername(r *http.Request) (string, bool) {
	id := GetIdentity(r)
	return id.Username, id.Authenticated
}

// GetRole returns the role claim of the authenticated user.
func GetRole(r *http.Request) (string, bool) {
	id := GetIdentity(r)
	return id.Role, id.Authenticated
}

// GetRequestID returns the request ID assigned by chi's RequestID middleware.
func GetRequestID(r *http.Request) (string, bool) {
	requestID := chimiddleware.GetReqID(r.Context())
	return requestID, requestID != ""
}

// IsAuthenticated checks if the request is authenticated.
func IsAuthenticated(r *http.Request) bool {
	return GetIdentity(r).Authenticated
}
