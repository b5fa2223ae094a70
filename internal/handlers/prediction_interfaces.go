package handlers

import (
	"context"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/export"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/service"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// PredictionServiceInterface classifies submissions and serves the caller's
// prediction history. Access checks happen in the service: a prediction the
// caller may not see is reported as not found.
type PredictionServiceInterface interface {
	// Predict normalizes, encodes and classifies pairs. Authenticated
	// callers get the prediction stored.
	//
	// Returns:
	//   - The per-model results
	//   - A *features.ValidationError for rejected input
	//   - service.ErrModelNotLoaded or inference.ErrInference on failure
	Predict(ctx context.Context, id auth.Identity, pairs []features.Pair) (*models.PredictResponse, error)

	List(ctx context.Context, id auth.Identity, page utils.PaginationParams) ([]*models.Prediction, int, error)
	Get(ctx context.Context, id auth.Identity, predictionID int64) (*models.Prediction, error)

	// Update re-classifies the prediction with the submitted values and
	// replaces its inputs and results.
	Update(ctx context.Context, id auth.Identity, predictionID int64, pairs []features.Pair) (*models.Prediction, error)

	Delete(ctx context.Context, id auth.Identity, predictionID int64) error
}

// AdminServiceInterface defines the admin console operations. Callers are
// already authorized by the route middleware.
type AdminServiceInterface interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)

	ListUsers(ctx context.Context) (*models.UserList, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, req *models.AdminUserCreate) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req *models.AdminUserUpdate) (*models.User, error)

	// DeleteUser removes an account. actor may not delete itself.
	DeleteUser(ctx context.Context, actor auth.Identity, id int64) error

	ListPredictions(ctx context.Context, r service.DateRange, page utils.PaginationParams) ([]*models.Prediction, int, error)
	DeletePrediction(ctx context.Context, id int64) error

	// Export renders every prediction in r in the requested format.
	Export(ctx context.Context, r service.DateRange, format export.Format) ([]byte, error)
}
