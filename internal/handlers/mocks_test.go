package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/export"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/service"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// MockAuthService is a testify mock of AuthServiceInterface.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) RegisterUser(ctx context.Context, reg *models.UserRegistration) (*models.User, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) AuthenticateUser(ctx context.Context, creds *models.UserCredentials) (*models.User, *service.TokenPair, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*service.TokenPair), args.Error(2)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

// stubJWTConfig serves fixed token lifetimes.
type stubJWTConfig struct {
	cfg *config.JWTSettings
}

func (s stubJWTConfig) GetConfig() *config.JWTSettings {
	return s.cfg
}

func newStubJWTConfig() stubJWTConfig {
	return stubJWTConfig{cfg: &config.JWTSettings{
		Secret:        "test-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	}}
}

// MockUserService is a testify mock of UserServiceInterface.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, update *models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, id int64, change *models.PasswordChange) error {
	return m.Called(ctx, id, change).Error(0)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) CheckUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) CheckEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockPredictionService is a testify mock of PredictionServiceInterface.
type MockPredictionService struct {
	mock.Mock
}

func (m *MockPredictionService) Predict(ctx context.Context, id auth.Identity, pairs []features.Pair) (*models.PredictResponse, error) {
	args := m.Called(ctx, id, pairs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PredictResponse), args.Error(1)
}

func (m *MockPredictionService) List(ctx context.Context, id auth.Identity, page utils.PaginationParams) ([]*models.Prediction, int, error) {
	args := m.Called(ctx, id, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Prediction), args.Int(1), args.Error(2)
}

func (m *MockPredictionService) Get(ctx context.Context, id auth.Identity, predictionID int64) (*models.Prediction, error) {
	args := m.Called(ctx, id, predictionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prediction), args.Error(1)
}

func (m *MockPredictionService) Update(ctx context.Context, id auth.Identity, predictionID int64, pairs []features.Pair) (*models.Prediction, error) {
	args := m.Called(ctx, id, predictionID, pairs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prediction), args.Error(1)
}

func (m *MockPredictionService) Delete(ctx context.Context, id auth.Identity, predictionID int64) error {
	return m.Called(ctx, id, predictionID).Error(0)
}

// MockAdminService is a testify mock of AdminServiceInterface.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockAdminService) ListUsers(ctx context.Context) (*models.UserList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserList), args.Error(1)
}

func (m *MockAdminService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAdminService) CreateUser(ctx context.Context, req *models.AdminUserCreate) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAdminService) UpdateUser(ctx context.Context, id int64, req *models.AdminUserUpdate) (*models.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAdminService) DeleteUser(ctx context.Context, actor auth.Identity, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockAdminService) ListPredictions(ctx context.Context, r service.DateRange, page utils.PaginationParams) ([]*models.Prediction, int, error) {
	args := m.Called(ctx, r, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Prediction), args.Int(1), args.Error(2)
}

func (m *MockAdminService) DeletePrediction(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) Export(ctx context.Context, r service.DateRange, format export.Format) ([]byte, error) {
	args := m.Called(ctx, r, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// envelope is the decoded standard response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *utils.MetaInfo `json:"meta"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func patientIdentity(id int64) auth.Identity {
	return auth.Identity{UserID: id, Username: "patient", Email: "patient@example.com", Role: constants.RolePatient, Authenticated: true}
}

func adminIdentity(id int64) auth.Identity {
	return auth.Identity{UserID: id, Username: "admin", Email: "admin@example.com", Role: constants.RoleAdmin, Authenticated: true}
}

// serve routes req through a chi router so URL parameters resolve. A
// non-zero id is attached as the caller.
func serve(id auth.Identity, method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id.Authenticated {
				req = req.WithContext(auth.WithIdentity(req.Context(), id))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Method(method, pattern, h)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}
