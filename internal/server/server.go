// Package server wires the HeartRisk API together: database, auth providers,
// repositories, services, handlers and routes, plus the HTTP server lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/handlers"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/inference"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/service"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils/ratelimit"
	"github.com/yasinhessnawi1/HeartRisk_Backend/migrations"
	"github.com/yasinhessnawi1/HeartRisk_Backend/scripts"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	AuthHandler       *handlers.AuthHandler
	UserHandler       *handlers.UserHandler
	PredictionHandler *handlers.PredictionHandler
	AdminHandler      *handlers.AdminHandler
}

// AuthProviders contains the token and password machinery shared by the
// services and the auth middleware.
type AuthProviders struct {
	// JWTService handles JWT token generation and validation
	JWTService *auth.JWTService

	// PasswordCfg contains password hashing configuration
	PasswordCfg *auth.PasswordConfig

	// Providers are tried in order by RequireAuth and OptionalAuth
	Providers []auth.AuthProvider
}

type repositories struct {
	users       repository.UserRepository
	sessions    repository.SessionRepository
	predictions repository.PredictionRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	prediction *service.PredictionService
	admin      *service.AdminService
}

// Server represents the API server for the HeartRisk application.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db backs the health endpoint and is closed on shutdown
	Db ServerDBHealthChecker

	// Bundle is the loaded model artifact; nil means predictions fail
	Bundle *inference.Bundle

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	pool          *database.Pool
	router        chi.Router
	authProviders *AuthProviders
	repos         repositories
	services      services
	limiter       *ratelimit.Store
	sessions      SessionCleaner
	httpServer    *http.Server
	stopTasks     chan struct{}
}

// NewServer creates a server with every component initialized, in the order
// database, auth providers, repositories, services, handlers, routes.
//
// Parameters:
//   - cfg: Application configuration
//   - bundle: The model artifact loaded at startup
//
// Returns:
//   - A Server ready to Start
//   - An error if any component fails to initialize
func NewServer(cfg *config.AppConfig, bundle *inference.Bundle) (*Server, error) {
	s := &Server{
		Config: cfg,
		Bundle: bundle,
	}

	if err := s.setupDatabase(); err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	if err := s.setupAuthProviders(); err != nil {
		return nil, fmt.Errorf("failed to set up auth providers: %w", err)
	}

	s.setupRepositories()

	if err := s.setupServices(); err != nil {
		return nil, fmt.Errorf("failed to set up services: %w", err)
	}

	if err := s.setupHandlers(); err != nil {
		return nil, fmt.Errorf("failed to set up handlers: %w", err)
	}

	s.setupRateLimiter()
	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// setupDatabase connects, migrates and seeds.
func (s *Server) setupDatabase() error {
	db, err := database.Connect(s.Config)
	if err != nil {
		return err
	}

	s.pool = db
	s.Db = db

	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	seeder := scripts.NewSeeder(db, s.Config.Admin, auth.ConfigFromAppConfig(s.Config))
	if err := seeder.SeedDatabase(context.Background()); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	return nil
}

func (s *Server) setupAuthProviders() error {
	if s.Config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret not configured")
	}

	jwtService := auth.NewJWTService(&s.Config.JWT)

	s.authProviders = &AuthProviders{
		JWTService:  jwtService,
		PasswordCfg: auth.ConfigFromAppConfig(s.Config),
		Providers:   []auth.AuthProvider{auth.NewJWTAuthProvider(jwtService)},
	}

	return nil
}

func (s *Server) setupRepositories() {
	s.repos = repositories{
		users:       repository.NewUserRepository(s.pool),
		sessions:    repository.NewSessionRepository(s.pool),
		predictions: repository.NewPredictionRepository(s.pool),
	}
}

// setupServices builds the services. The classifier stays a nil interface
// when no bundle is loaded.
func (s *Server) setupServices() error {
	if s.authProviders == nil || s.authProviders.JWTService == nil {
		return fmt.Errorf("JWT service not initialized")
	}
	if s.authProviders.PasswordCfg == nil {
		return fmt.Errorf("password config not initialized")
	}

	var classifier service.Classifier
	if s.Bundle != nil {
		classifier = s.Bundle
	} else {
		log.Warn().Msg("No model bundle loaded, predictions will fail")
	}

	s.services = services{
		auth:       service.NewAuthService(s.repos.users, s.repos.sessions, s.authProviders.JWTService, s.authProviders.PasswordCfg),
		user:       service.NewUserService(s.repos.users, s.repos.sessions, s.authProviders.PasswordCfg),
		prediction: service.NewPredictionService(s.repos.predictions, classifier),
		admin:      service.NewAdminService(s.repos.users, s.repos.sessions, s.repos.predictions, s.authProviders.PasswordCfg),
	}
	s.sessions = s.services.auth

	return nil
}

func (s *Server) setupHandlers() error {
	s.Handlers = &Handlers{
		AuthHandler:       handlers.NewAuthHandler(s.services.auth, s.authProviders.JWTService),
		UserHandler:       handlers.NewUserHandler(s.services.user),
		PredictionHandler: handlers.NewPredictionHandler(s.services.prediction),
		AdminHandler:      handlers.NewAdminHandler(s.services.admin),
	}

	if s.Handlers.AuthHandler == nil {
		return fmt.Errorf("failed to initialize AuthHandler")
	}

	return nil
}

// setupRateLimiter creates the shared bucket store with one rate per
// endpoint category.
func (s *Server) setupRateLimiter() {
	rl := s.Config.RateLimit
	s.limiter = ratelimit.NewStore(
		ratelimit.Rate{RequestsPerSecond: rl.PredictPerSecond, Burst: rl.PredictBurst},
		constants.RateLimitCleanupInterval,
	)
	s.limiter.SetRate(constants.RateCategoryAuth, ratelimit.Rate{RequestsPerSecond: rl.AuthPerSecond, Burst: rl.AuthBurst})
	s.limiter.SetRate(constants.RateCategoryPredict, ratelimit.Rate{RequestsPerSecond: rl.PredictPerSecond, Burst: rl.PredictBurst})
}

// Start runs the HTTP server and blocks until it fails or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Str("environment", s.Config.App.Environment).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	s.SetupMaintenanceTasks()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown waits for in-flight requests, then stops background work and
// closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info().Msg("Server stopped gracefully")
	}

	if s.stopTasks != nil {
		close(s.stopTasks)
		s.stopTasks = nil
	}

	if s.limiter != nil {
		s.limiter.Stop()
	}

	if s.Db != nil {
		s.Db.Close()
		log.Info().Msg("Database connection closed")
	}

	return nil
}

// SetupMaintenanceTasks purges expired sessions every
// constants.DBMaintenanceInterval until Shutdown.
func (s *Server) SetupMaintenanceTasks() {
	if s.sessions == nil || s.stopTasks != nil {
		return
	}

	stop := make(chan struct{})
	s.stopTasks = stop

	go func() {
		ticker := time.NewTicker(constants.DBMaintenanceInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.runMaintenance()
			}
		}
	}()
}

func (s *Server) runMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.MaintenanceTaskTimeout)
	defer cancel()

	if count, err := s.sessions.CleanupExpiredSessions(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to cleanup expired sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("Cleaned up expired sessions")
	}
}
