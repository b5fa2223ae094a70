package server

import (
	"context"

	"github.com/go-chi/chi/v5"
)

// ServerTestInterface is the lifecycle surface of Server.
type ServerTestInterface interface {
	SetupRoutes()
	GetRouter() chi.Router
	Start() error
	Shutdown(ctx context.Context) error
	SetupMaintenanceTasks()
}

// ServerDBHealthChecker is the part of the database pool the health
// endpoint and shutdown use.
type ServerDBHealthChecker interface {
	HealthCheck(ctx context.Context) error
	Close()
}

// SessionCleaner purges expired refresh sessions.
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

var _ ServerTestInterface = (*Server)(nil)
