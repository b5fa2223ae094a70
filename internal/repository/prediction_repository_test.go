package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/features"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/risk"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

var predictionRowColumns = []string{
	"prediction_id", "user_id", "age", "sex", "chest_pain_type", "resting_bp", "cholesterol",
	"fasting_bs", "resting_ecg", "max_hr", "exercise_angina", "oldpeak", "st_slope",
	"encoding_version", "created_at", "updated_at", "username", "full_name",
}

var resultRowColumns = []string{
	"result_id", "prediction_id", "model_key", "model_name", "label", "positive",
	"probability_percent", "risk_tier", "created_at",
}

var sampleInput = features.Input{
	Age: 54, Sex: "M", ChestPainType: "ASY", RestingBP: 140, Cholesterol: 239,
	FastingBS: 0, RestingECG: "Normal", MaxHR: 160, ExerciseAngina: "N", Oldpeak: 1.2, STSlope: "Flat",
}

func setupPredictionRepositoryTest(t *testing.T) (repository.PredictionRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewPredictionRepository(&database.Pool{DB: db}), mock
}

func newTestPrediction() *models.Prediction {
	p := models.NewPrediction(3, sampleInput)
	p.Results = []*models.PredictionResult{
		models.NewPredictionResult("dt", "Decision Tree", 0.8, true),
		models.NewPredictionResult("rf", "Random Forest", 0.25, false),
	}
	return p
}

func addPredictionRow(rows *sqlmock.Rows, id int64, at time.Time) *sqlmock.Rows {
	in := sampleInput
	return rows.AddRow(id, 3, in.Age, in.Sex, in.ChestPainType, in.RestingBP, in.Cholesterol,
		in.FastingBS, in.RestingECG, in.MaxHR, in.ExerciseAngina, in.Oldpeak, in.STSlope,
		features.EncodingVersion, at, at, "jdoe", "John Doe")
}

func TestPredictionRepository_Create(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)
	p := newTestPrediction()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO predictions").
		WillReturnRows(sqlmock.NewRows([]string{"prediction_id"}).AddRow(11))
	mock.ExpectQuery("INSERT INTO prediction_results").
		WithArgs(int64(11), "dt", "Decision Tree", risk.LabelPositive, true, 80.0, "high", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"result_id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO prediction_results").
		WithArgs(int64(11), "rf", "Random Forest", risk.LabelNegative, false, 25.0, "low", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"result_id"}).AddRow(2))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, int64(11), p.Results[1].PredictionID)
	assert.Equal(t, int64(2), p.Results[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_Create_RollsBack(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO predictions").
		WillReturnRows(sqlmock.NewRows([]string{"prediction_id"}).AddRow(11))
	mock.ExpectQuery("INSERT INTO prediction_results").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), newTestPrediction())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create prediction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_Create_UnknownUser(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO predictions").
		WillReturnError(&pq.Error{Code: constants.PGErrorForeignKeyConstraint})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), newTestPrediction())

	assert.True(t, utils.IsNotFoundError(err))
}

func TestPredictionRepository_Replace(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupPredictionRepositoryTest(t)
		p := newTestPrediction()
		p.ID = 11

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE predictions").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM prediction_results").WithArgs(int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectQuery("INSERT INTO prediction_results").
			WillReturnRows(sqlmock.NewRows([]string{"result_id"}).AddRow(3))
		mock.ExpectQuery("INSERT INTO prediction_results").
			WillReturnRows(sqlmock.NewRows([]string{"result_id"}).AddRow(4))
		mock.ExpectCommit()

		require.NoError(t, repo.Replace(context.Background(), p))
		assert.Equal(t, int64(3), p.Results[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupPredictionRepositoryTest(t)
		p := newTestPrediction()
		p.ID = 404

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE predictions").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Replace(context.Background(), p)
		assert.True(t, utils.IsNotFoundError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPredictionRepository_GetByID(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM predictions p JOIN users u").
		WithArgs(int64(11)).
		WillReturnRows(addPredictionRow(sqlmock.NewRows(predictionRowColumns), 11, now))
	mock.ExpectQuery("FROM prediction_results").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(resultRowColumns).
			AddRow(1, 11, "dt", "Decision Tree", risk.LabelPositive, true, 80.0, "high", now).
			AddRow(2, 11, "rf", "Random Forest", risk.LabelNegative, false, 25.0, "low", now))

	p, err := repo.GetByID(context.Background(), 11)

	require.NoError(t, err)
	assert.Equal(t, sampleInput, p.Input)
	assert.Equal(t, "jdoe", p.Username)
	require.Len(t, p.Results, 2)
	assert.Equal(t, risk.High, p.Results[0].RiskTier)
	assert.Equal(t, risk.High.Description(), p.Results[0].RiskDescription)
	assert.NotEmpty(t, p.Results[1].Description)
	assert.True(t, p.HighRisk())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_GetByID_UnknownTier(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM predictions p JOIN users u").
		WithArgs(int64(11)).
		WillReturnRows(addPredictionRow(sqlmock.NewRows(predictionRowColumns), 11, now))
	mock.ExpectQuery("FROM prediction_results").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(resultRowColumns).
			AddRow(1, 11, "dt", "Decision Tree", risk.LabelPositive, true, 80.0, "severe", now))

	_, err := repo.GetByID(context.Background(), 11)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown risk tier")
}

func TestPredictionRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)

	mock.ExpectQuery("SELECT (.+) FROM predictions").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 11)

	assert.True(t, utils.IsNotFoundError(err))
}

func TestPredictionRepository_List(t *testing.T) {
	t.Run("filtered page", func(t *testing.T) {
		repo, mock := setupPredictionRepositoryTest(t)
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		until := from.AddDate(0, 1, 0)
		now := time.Now()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM predictions p WHERE p.user_id = \$1 AND p.created_at >= \$2 AND p.created_at < \$3`).
			WithArgs(int64(3), from, until).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
		mock.ExpectQuery(`ORDER BY p.created_at DESC, p.prediction_id DESC LIMIT \$4 OFFSET \$5`).
			WithArgs(int64(3), from, until, 10, 10).
			WillReturnRows(addPredictionRow(addPredictionRow(sqlmock.NewRows(predictionRowColumns), 12, now), 11, now))
		mock.ExpectQuery("FROM prediction_results").
			WillReturnRows(sqlmock.NewRows(resultRowColumns).
				AddRow(5, 11, "dt", "Decision Tree", risk.LabelNegative, false, 10.0, "low", now))

		items, total, err := repo.List(context.Background(),
			models.PredictionFilter{UserID: 3, From: from, Until: until},
			utils.PaginationParams{Page: 2, PageSize: 10})

		require.NoError(t, err)
		assert.Equal(t, 25, total)
		require.Len(t, items, 2)
		assert.Equal(t, int64(12), items[0].ID)
		assert.Empty(t, items[0].Results)
		assert.Len(t, items[1].Results, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		repo, mock := setupPredictionRepositoryTest(t)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM predictions p$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		items, total, err := repo.List(context.Background(), models.PredictionFilter{},
			utils.PaginationParams{Page: 1, PageSize: 20})

		require.NoError(t, err)
		assert.Zero(t, total)
		assert.NotNil(t, items)
		assert.Empty(t, items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPredictionRepository_Recent(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)

	mock.ExpectQuery("LIMIT").WithArgs(constants.DashboardRecentLimit).
		WillReturnRows(sqlmock.NewRows(predictionRowColumns))

	items, err := repo.Recent(context.Background(), constants.DashboardRecentLimit)

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_Delete(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)

	mock.ExpectExec("DELETE FROM predictions").WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM predictions").WithArgs(int64(12)).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 11))
	assert.True(t, utils.IsNotFoundError(repo.Delete(context.Background(), 12)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_Stats(t *testing.T) {
	repo, mock := setupPredictionRepositoryTest(t)
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FILTER").WithArgs("high", since).
		WillReturnRows(sqlmock.NewRows([]string{"total", "high", "today"}).AddRow(40, 9, 2))

	stats, err := repo.Stats(context.Background(), since)

	require.NoError(t, err)
	assert.Equal(t, 40, stats.TotalPredictions)
	assert.Equal(t, 9, stats.HighRiskPredictions)
	assert.Equal(t, 2, stats.TodayPredictions)
}
