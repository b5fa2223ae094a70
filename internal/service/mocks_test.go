package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/inference"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// MockUserRepository keeps users in memory, matching names and emails
// without regard to case.
type MockUserRepository struct {
	users  map[int64]*models.User
	nextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[int64]*models.User), nextID: 1}
}

func (m *MockUserRepository) find(match func(*models.User) bool) *models.User {
	for _, u := range m.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.find(func(u *models.User) bool { return strings.EqualFold(u.Username, user.Username) }) != nil {
		return utils.NewDuplicateError("User", "username", user.Username)
	}
	user.ID = m.nextID
	m.nextID++
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("User", id)
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if u := m.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) }); u != nil {
		return m.GetByID(ctx, u.ID)
	}
	return nil, utils.NewNotFoundError("User", username)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u := m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }); u != nil {
		return m.GetByID(ctx, u.ID)
	}
	return nil, utils.NewNotFoundError("User", email)
}

func (m *MockUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if u, err := m.GetByUsername(ctx, identifier); err == nil {
		return u, nil
	}
	return m.GetByEmail(ctx, identifier)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return utils.NewNotFoundError("User", user.ID)
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return utils.NewNotFoundError("User", id)
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) ChangePassword(ctx context.Context, id int64, passwordHash, salt string) error {
	user, ok := m.users[id]
	if !ok {
		return utils.NewNotFoundError("User", id)
	}
	user.PasswordHash = passwordHash
	user.Salt = salt
	return nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

// MockSessionRepository keeps sessions in memory keyed by JWT ID.
type MockSessionRepository struct {
	sessions map[string]*models.Session
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*models.Session)}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	m.sessions[session.JWTID] = session
	return nil
}

func (m *MockSessionRepository) GetByJWTID(ctx context.Context, jwtID string) (*models.Session, error) {
	session, ok := m.sessions[jwtID]
	if !ok {
		return nil, utils.NewNotFoundError("Session", jwtID)
	}
	return session, nil
}

func (m *MockSessionRepository) IsValidSession(ctx context.Context, jwtID string) (bool, error) {
	session, ok := m.sessions[jwtID]
	return ok && !session.IsExpired(), nil
}

func (m *MockSessionRepository) DeleteByJWTID(ctx context.Context, jwtID string) error {
	if _, ok := m.sessions[jwtID]; !ok {
		return utils.NewNotFoundError("Session", jwtID)
	}
	delete(m.sessions, jwtID)
	return nil
}

func (m *MockSessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	var count int64
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	var count int64
	for id, s := range m.sessions {
		if s.IsExpired() {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

func (m *MockSessionRepository) countFor(userID int64) int {
	count := 0
	for _, s := range m.sessions {
		if s.UserID == userID {
			count++
		}
	}
	return count
}

// MockPredictionRepository keeps predictions in memory. createErr makes
// Create fail.
type MockPredictionRepository struct {
	predictions map[int64]*models.Prediction
	nextID      int64
	createErr   error
	lastFilter  models.PredictionFilter
}

func NewMockPredictionRepository() *MockPredictionRepository {
	return &MockPredictionRepository{predictions: make(map[int64]*models.Prediction), nextID: 1}
}

func (m *MockPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	if m.createErr != nil {
		return m.createErr
	}
	p.ID = m.nextID
	m.nextID++
	m.predictions[p.ID] = p
	return nil
}

func (m *MockPredictionRepository) Replace(ctx context.Context, p *models.Prediction) error {
	if _, ok := m.predictions[p.ID]; !ok {
		return utils.NewNotFoundError("Prediction", p.ID)
	}
	m.predictions[p.ID] = p
	return nil
}

func (m *MockPredictionRepository) GetByID(ctx context.Context, id int64) (*models.Prediction, error) {
	p, ok := m.predictions[id]
	if !ok {
		return nil, utils.NewNotFoundError("Prediction", id)
	}
	return p, nil
}

func (m *MockPredictionRepository) matching(filter models.PredictionFilter) []*models.Prediction {
	m.lastFilter = filter
	var out []*models.Prediction
	for _, p := range m.predictions {
		if filter.UserID != 0 && p.UserID != filter.UserID {
			continue
		}
		if !filter.From.IsZero() && p.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.Until.IsZero() && !p.CreatedAt.Before(filter.Until) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *MockPredictionRepository) List(ctx context.Context, filter models.PredictionFilter, page utils.PaginationParams) ([]*models.Prediction, int, error) {
	all := m.matching(filter)
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *MockPredictionRepository) ListAll(ctx context.Context, filter models.PredictionFilter) ([]*models.Prediction, error) {
	return m.matching(filter), nil
}

func (m *MockPredictionRepository) Recent(ctx context.Context, limit int) ([]*models.Prediction, error) {
	all := m.matching(models.PredictionFilter{})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockPredictionRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.predictions[id]; !ok {
		return utils.NewNotFoundError("Prediction", id)
	}
	delete(m.predictions, id)
	return nil
}

func (m *MockPredictionRepository) Stats(ctx context.Context, since time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	for _, p := range m.predictions {
		stats.TotalPredictions++
		if p.HighRisk() {
			stats.HighRiskPredictions++
		}
		if !p.CreatedAt.Before(since) {
			stats.TodayPredictions++
		}
	}
	return stats, nil
}

// fakeClassifier returns fixed outcomes.
type fakeClassifier struct {
	outcomes []inference.Outcome
	err      error
}

func (f *fakeClassifier) Infer(vec features.Vector) (inference.Result, error) {
	if f.err != nil {
		return inference.Result{}, f.err
	}
	return inference.Result{Outcomes: f.outcomes}, nil
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{outcomes: []inference.Outcome{
		{Key: "dt", Name: "Decision Tree", Kind: inference.KindDecisionTree, Probability: 0.8, Positive: true},
		{Key: "rf", Name: "Random Forest", Kind: inference.KindRandomForest, Probability: 0.2, Positive: false},
	}}
}

var errStorage = errors.New("storage offline")

func cheapPasswordConfig() *auth.PasswordConfig {
	return &auth.PasswordConfig{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(&config.JWTSettings{
		Secret:        "test-secret-that-is-long-enough-for-hs256",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "heartrisk-test",
	})
}

func samplePairs() []features.Pair {
	return []features.Pair{
		{Key: "Age", Value: 54.0},
		{Key: "Sex", Value: "M"},
		{Key: "ChestPainType", Value: "ASY"},
		{Key: "RestingBP", Value: 140.0},
		{Key: "Cholesterol", Value: 239.0},
		{Key: "FastingBS", Value: 0.0},
		{Key: "RestingECG", Value: "Normal"},
		{Key: "MaxHR", Value: 160.0},
		{Key: "ExerciseAngina", Value: "N"},
		{Key: "Oldpeak", Value: 1.2},
		{Key: "STSlope", Value: "Flat"},
	}
}

func patient(id int64) auth.Identity {
	return auth.Identity{UserID: id, Username: "patient", Role: constants.RolePatient, Authenticated: true}
}

func admin(id int64) auth.Identity {
	return auth.Identity{UserID: id, Username: "admin", Role: constants.RoleAdmin, Authenticated: true}
}
