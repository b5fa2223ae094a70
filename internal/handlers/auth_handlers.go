package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// AuthHandler handles authentication-related routes
type AuthHandler struct {
	authService AuthServiceInterface
	jwtService  JWTServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthServiceInterface, jwtService JWTServiceInterface) *AuthHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	if jwtService == nil {
		panic("jwtService cannot be nil")
	}
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
	}
}

// refreshRequest is the optional body of refresh and logout for clients
// that do not keep cookies.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles patient signup
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg models.UserRegistration
	if err := utils.DecodeAndValidate(r, &reg); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	user, err := h.authService.RegisterUser(r.Context(), &reg)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.UserCredentials
	if err := utils.DecodeAndValidate(r, &creds); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	user, tokens, err := h.authService.AuthenticateUser(r.Context(), &creds)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	h.setRefreshCookie(w, r, tokens.RefreshToken)

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"access_token": tokens.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   int(h.jwtService.GetConfig().Expiry.Seconds()),
	})
}

// RefreshToken rotates the token pair. The refresh token is read from the
// cookie, or from the body when no cookie is sent.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := refreshTokenFrom(r)
	if !ok {
		utils.Unauthorized(w, "Refresh token not found")
		return
	}

	tokens, err := h.authService.RefreshTokens(r.Context(), refreshToken)
	if err != nil {
		h.clearRefreshCookie(w, r)
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	h.setRefreshCookie(w, r, tokens.RefreshToken)

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"access_token": tokens.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   int(h.jwtService.GetConfig().Expiry.Seconds()),
	})
}

// Logout handles user logout. It succeeds even without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if refreshToken, ok := refreshTokenFrom(r); ok {
		if err := h.authService.Logout(r.Context(), refreshToken); err != nil {
			log.Warn().Err(err).Msg("Failed to close session on logout")
		}
	}

	h.clearRefreshCookie(w, r)

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": constants.MsgLogoutSuccess,
	})
}

// LogoutAll handles logging out all sessions for a user
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgAuthRequired)
		return
	}

	if err := h.authService.LogoutAll(r.Context(), userID); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	h.clearRefreshCookie(w, r)

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"message": constants.MsgLogoutAllSuccess,
	})
}

// VerifyToken reports the identity of a valid access token. The auth
// middleware has already checked the token.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r)
	if !id.Authenticated {
		utils.Unauthorized(w, constants.MsgAuthRequired)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user_id":       id.UserID,
		"username":      id.Username,
		"email":         id.Email,
		"role":          id.Role,
	})
}

func refreshTokenFrom(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(constants.RefreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	if r.Body == nil || r.ContentLength == 0 {
		return "", false
	}

	var req refreshRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		return "", false
	}
	return req.RefreshToken, req.RefreshToken != ""
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	refreshExpiry := h.jwtService.GetConfig().RefreshExpiry
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookie,
		Value:    value,
		Path:     constants.APIBasePath + "/auth",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(refreshExpiry.Seconds()),
		Expires:  time.Now().Add(refreshExpiry),
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookie,
		Value:    "",
		Path:     constants.APIBasePath + "/auth",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
