package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// RequireCapability admits only callers granted action. It must run after
// RequireAuth or OptionalAuth: anonymous callers get 401 for actions that
// need an account, authenticated callers get 403.
func RequireCapability(action auth.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.GetIdentity(r)
			if auth.Authorize(id, action) {
				next.ServeHTTP(w, r)
				return
			}

			if !id.Authenticated {
				utils.Unauthorized(w, constants.MsgAuthRequired)
				return
			}

			requestID, _ := auth.GetRequestID(r)
			log.Warn().
				Int64(constants.UserIDContextKey, id.UserID).
				Str(constants.RoleContextKey, id.Role).
				Str("action", string(action)).
				Str(constants.RequestIDContextKey, requestID).
				Msg("Capability denied")

			utils.Forbidden(w, constants.MsgAccessDenied)
		})
	}
}

// SecurityHeaders adds security-related HTTP headers to responses
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
			w.Header().Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
			w.Header().Set(constants.HeaderXXSSProtection, constants.XSSProtectionModeBlock)
			w.Header().Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictOrigin)
			w.Header().Set(constants.HeaderContentSecurityPolicy, constants.CSPDefaultSrc)

			next.ServeHTTP(w, r)
		})
	}
}
