package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/export"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("", "")
	require.NoError(t, err)
	assert.True(t, r.IsZero())
	assert.Equal(t, models.PredictionFilter{}, r.Filter())

	r, err = ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	f := r.Filter()
	assert.Equal(t, "2024-01-01", f.From.Format(constants.DateLayout))
	assert.Equal(t, "2024-02-01", f.Until.Format(constants.DateLayout), "the end day is included")

	tests := []struct {
		name, start, end, msg string
	}{
		{"start only", "2024-01-01", "", constants.MsgDateRangeRequired},
		{"end only", "", "2024-01-01", constants.MsgDateRangeRequired},
		{"bad start", "01/01/2024", "2024-01-31", constants.MsgInvalidDate},
		{"bad end", "2024-01-01", "2024-13-01", constants.MsgInvalidDate},
		{"reversed", "2024-02-01", "2024-01-01", constants.MsgInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDateRange(tt.start, tt.end)
			require.Error(t, err)
			assert.Equal(t, 400, utils.StatusCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

type adminFixture struct {
	svc         *AdminService
	users       *MockUserRepository
	predictions *MockPredictionRepository
	adminID     int64
	patientID   int64
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	ctx := context.Background()
	users := NewMockUserRepository()
	sessions := NewMockSessionRepository()
	predictions := NewMockPredictionRepository()
	svc := NewAdminService(users, sessions, predictions, cheapPasswordConfig())
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 15, 0, 0, 0, time.Local) }

	adminUser, err := svc.CreateUser(ctx, &models.AdminUserCreate{
		Username: "admin", Email: "admin@example.com", Password: "admin123", FullName: "Admin User", Role: constants.RoleAdmin,
	})
	require.NoError(t, err)
	patientUser, err := svc.CreateUser(ctx, &models.AdminUserCreate{
		Username: "jdoe", Email: "jdoe@example.com", Password: "secret1", FullName: "John Doe", Role: constants.RolePatient,
	})
	require.NoError(t, err)

	in := features.Input{Age: 54, Sex: "M", ChestPainType: "ASY", RestingBP: 140, Cholesterol: 239,
		RestingECG: "Normal", MaxHR: 160, ExerciseAngina: "N", Oldpeak: 1.2, STSlope: "Flat"}
	for i, c := range []struct {
		at   time.Time
		prob float64
	}{
		{time.Date(2024, 5, 10, 9, 0, 0, 0, time.Local), 0.9},
		{time.Date(2024, 5, 9, 9, 0, 0, 0, time.Local), 0.1},
		{time.Date(2024, 4, 1, 9, 0, 0, 0, time.Local), 0.5},
	} {
		p := models.NewPrediction(patientUser.ID, in)
		p.CreatedAt = c.at
		p.Username = "jdoe"
		p.Results = []*models.PredictionResult{models.NewPredictionResult("dt", "Decision Tree", c.prob, c.prob >= 0.5)}
		require.NoError(t, predictions.Create(ctx, p), i)
	}

	return &adminFixture{svc: svc, users: users, predictions: predictions, adminID: adminUser.ID, patientID: patientUser.ID}
}

func TestAdminService_Dashboard(t *testing.T) {
	f := newAdminFixture(t)

	stats, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPatients)
	assert.Equal(t, 3, stats.TotalPredictions)
	assert.Equal(t, 1, stats.HighRiskPredictions)
	assert.Equal(t, 1, stats.TodayPredictions)
	assert.Len(t, stats.RecentPredictions, 3)
}

func TestAdminService_Users(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	list, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list.Admins, 1)
	require.Len(t, list.Patients, 1)
	assert.Empty(t, list.Patients[0].PasswordHash)

	_, err = f.svc.CreateUser(ctx, &models.AdminUserCreate{
		Username: "JDOE", Email: "new@example.com", Password: "secret1", FullName: "Dup", Role: constants.RolePatient,
	})
	assert.True(t, utils.IsDuplicateError(err))

	updated, err := f.svc.UpdateUser(ctx, f.patientID, &models.AdminUserUpdate{Role: constants.RoleAdmin, FullName: "Johnny"})
	require.NoError(t, err)
	assert.Equal(t, constants.RoleAdmin, updated.Role)
	assert.Equal(t, "Johnny", updated.FullName)

	_, err = f.svc.UpdateUser(ctx, f.patientID, &models.AdminUserUpdate{Password: "123"})
	assert.True(t, utils.IsValidationError(err))

	_, err = f.svc.UpdateUser(ctx, f.patientID, &models.AdminUserUpdate{Password: "longenough"})
	require.NoError(t, err)

	err = f.svc.DeleteUser(ctx, admin(f.adminID), f.adminID)
	assert.Equal(t, 400, utils.StatusCode(err))

	require.NoError(t, f.svc.DeleteUser(ctx, admin(f.adminID), f.patientID))
	_, err = f.svc.GetUser(ctx, f.patientID)
	assert.True(t, utils.IsNotFoundError(err))
}

func TestAdminService_Predictions(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	r, err := ParseDateRange("2024-05-01", "2024-05-10")
	require.NoError(t, err)

	items, total, err := f.svc.ListPredictions(ctx, r, utils.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	_, total, err = f.svc.ListPredictions(ctx, DateRange{}, utils.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	data, err := f.svc.Export(ctx, r, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"), "header plus two rows")

	data, err = f.svc.Export(ctx, r, export.FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Predictions Report from 2024-05-01 to 2024-05-10")

	require.NoError(t, f.svc.DeletePrediction(ctx, items[0].ID))
	assert.True(t, utils.IsNotFoundError(f.svc.DeletePrediction(ctx, items[0].ID)))
}
