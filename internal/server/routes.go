package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/inference"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/middleware"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Accept, Authorization, Content-Type, X-Request-ID"
	corsMaxAge       = "300"
)

// SetupRoutes builds the router.
//
// Public: health, version, routes doc, model listing, signup/login/refresh/
// logout, availability checks and the classifier endpoint. Everything under
// /api/users/me and /api/predictions needs a valid access token, and
// /api/admin additionally needs the admin role.
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	r.Use(corsMiddleware(s.Config.CORS.AllowedOrigins, s.Config.CORS.AllowCredentials))
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery())
	r.Use(chimiddleware.RealIP)
	if s.Config.Logging.RequestLog {
		r.Use(middleware.RequestLog())
	}
	r.Use(middleware.SecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, constants.MsgResourceNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.MethodNotAllowed(w)
	})

	providers := s.authProviders.Providers
	requireAuth := auth.RequireAuth(providers...)

	r.Group(func(r chi.Router) {
		r.Get(constants.HealthPath, s.health)
		r.Get(constants.VersionPath, s.version)
		r.Get(constants.RoutesPath, s.GetAPIRoutes)
		r.Get(constants.ModelsPath, s.listModels)
	})

	r.Route(constants.APIBasePath, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(s.limiter, constants.RateCategoryAuth))
				r.Post("/signup", s.Handlers.AuthHandler.Register)
				r.Post("/login", s.Handlers.AuthHandler.Login)
			})

			r.Post("/refresh", s.Handlers.AuthHandler.RefreshToken)
			r.Post("/logout", s.Handlers.AuthHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/verify", s.Handlers.AuthHandler.VerifyToken)
				r.Post("/logout-all", s.Handlers.AuthHandler.LogoutAll)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.NoCache)
				r.Get("/check/username", s.Handlers.UserHandler.CheckUsername)
				r.Get("/check/email", s.Handlers.UserHandler.CheckEmail)
			})

			r.Route("/me", func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", s.Handlers.UserHandler.GetCurrentUser)
				r.Put("/", s.Handlers.UserHandler.UpdateUser)
				r.Delete("/", s.Handlers.UserHandler.DeleteAccount)
				r.Post("/change-password", s.Handlers.UserHandler.ChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(providers...))
			r.Use(middleware.RateLimit(s.limiter, constants.RateCategoryPredict))
			r.Post("/predict", s.Handlers.PredictionHandler.Predict)
		})

		// Ownership is checked per record by the service.
		r.Route("/predictions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireCapability(auth.ActionPredictionOwnRead))
			r.Get("/", s.Handlers.PredictionHandler.ListPredictions)
			r.Get("/{id}", s.Handlers.PredictionHandler.GetPrediction)
			r.Put("/{id}", s.Handlers.PredictionHandler.UpdatePrediction)
			r.Delete("/{id}", s.Handlers.PredictionHandler.DeletePrediction)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(chimiddleware.NoCache)

			r.With(middleware.RequireCapability(auth.ActionDashboardView)).
				Get("/dashboard", s.Handlers.AdminHandler.Dashboard)

			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireCapability(auth.ActionUserManage))
				r.Get("/", s.Handlers.AdminHandler.ListUsers)
				r.Post("/", s.Handlers.AdminHandler.CreateUser)
				r.Get("/{id}", s.Handlers.AdminHandler.GetUser)
				r.Put("/{id}", s.Handlers.AdminHandler.UpdateUser)
				r.Delete("/{id}", s.Handlers.AdminHandler.DeleteUser)
			})

			r.Route("/predictions", func(r chi.Router) {
				r.With(middleware.RequireCapability(auth.ActionPredictionAnyRead)).
					Get("/", s.Handlers.AdminHandler.ListPredictions)
				r.With(middleware.RequireCapability(auth.ActionPredictionAnyWrite)).
					Delete("/{id}", s.Handlers.AdminHandler.DeletePrediction)
				r.With(middleware.RequireCapability(auth.ActionPredictionExport)).
					Get("/export/{format}", s.Handlers.AdminHandler.ExportPredictions)
			})
		})
	})

	s.router = r
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.Db == nil {
		utils.Error(w, http.StatusServiceUnavailable, constants.CodeServiceUnavailable, constants.MsgServiceUnhealthy, nil)
		return
	}

	if err := s.Db.HealthCheck(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, constants.CodeServiceUnavailable, constants.MsgServiceUnhealthy, nil)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"version":      s.Config.App.Version,
		"model_loaded": s.Bundle != nil,
	})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"version":     s.Config.App.Version,
		"environment": s.Config.App.Environment,
	})
}

// listModels describes the loaded classifiers. The encoding version is
// the one this build encodes inputs with.
func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	models := []inference.ModelInfo{}
	if s.Bundle != nil {
		models = s.Bundle.Models()
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"loaded":           s.Bundle != nil,
		"models":           models,
		"encoding_version": features.EncodingVersion,
	})
}

// corsMiddleware adds CORS headers for allowed origins and answers
// preflight requests itself. "*" allows any origin; the request origin is
// echoed back so credentialed requests still work.
func corsMiddleware(allowedOrigins []string, allowCredentials bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get(constants.HeaderOrigin)
			if origin == "" || !originAllowed(allowedOrigins, origin) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", constants.HeaderOrigin)
			if allowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func originAllowed(allowedOrigins []string, origin string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
