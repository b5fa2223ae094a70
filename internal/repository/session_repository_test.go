package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

func setupSessionRepositoryTest(t *testing.T) (repository.SessionRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewSessionRepository(&database.Pool{DB: db}), mock
}

func TestSessionRepository_Create(t *testing.T) {
	repo, mock := setupSessionRepositoryTest(t)

	session := &models.Session{
		UserID:    100,
		JWTID:     "jwt456",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), session.UserID, session.JWTID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), session)

	require.NoError(t, err)
	assert.NotEmpty(t, session.ID, "an ID is generated")
	assert.False(t, session.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Create_DuplicateJWTID(t *testing.T) {
	repo, mock := setupSessionRepositoryTest(t)

	mock.ExpectExec("INSERT INTO sessions").
		WillReturnError(&pgconn.PgError{Code: constants.PGErrorDuplicateConstraint, ConstraintName: constants.IndexJWTID})

	err := repo.Create(context.Background(), &models.Session{ID: "s1", UserID: 1, JWTID: "dup"})

	require.Error(t, err)
	assert.True(t, utils.IsDuplicateError(err))
	assert.Contains(t, err.Error(), constants.ColumnJWTID)
}

func TestSessionRepository_GetByJWTID(t *testing.T) {
	repo, mock := setupSessionRepositoryTest(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM sessions").
		WithArgs("jwt456").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "user_id", "jwt_id", "expires_at", "created_at"}).
			AddRow("s1", 100, "jwt456", now.Add(time.Hour), now))

	session, err := repo.GetByJWTID(context.Background(), "jwt456")

	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, int64(100), session.UserID)
	assert.False(t, session.IsExpired())
}

func TestSessionRepository_GetByJWTID_NotFound(t *testing.T) {
	repo, mock := setupSessionRepositoryTest(t)

	mock.ExpectQuery("SELECT (.+) FROM sessions").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByJWTID(context.Background(), "missing")

	assert.True(t, utils.IsNotFoundError(err))
}

func TestSessionRepository_IsValidSession(t *testing.T) {
	repo, mock := setupSessionRepositoryTest(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("jwt456", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	valid, err := repo.IsValidSession(context.Background(), "jwt456")

	require.NoError(t, err)
	assert.True(t, valid)
}

func TestSessionRepository_DeleteByJWTID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupSessionRepositoryTest(t)
		mock.ExpectExec("DELETE FROM sessions WHERE jwt_id").WithArgs("jwt456").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteByJWTID(context.Background(), "jwt456"))
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupSessionRepositoryTest(t)
		mock.ExpectExec("DELETE FROM sessions WHERE jwt_id").WithArgs("gone").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.True(t, utils.IsNotFoundError(repo.DeleteByJWTID(context.Background(), "gone")))
	})
}

func TestSessionRepository_DeleteByUserID(t *testing.T) {
	repo, mock := setupSessionRepositoryTest(t)

	mock.ExpectExec("DELETE FROM sessions WHERE user_id").WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.DeleteByUserID(context.Background(), 100)

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupSessionRepositoryTest(t)
		mock.ExpectExec("DELETE FROM sessions WHERE expires_at").WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))

		count, err := repo.DeleteExpired(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("error", func(t *testing.T) {
		repo, mock := setupSessionRepositoryTest(t)
		mock.ExpectExec("DELETE FROM sessions WHERE expires_at").WillReturnError(errors.New("boom"))

		_, err := repo.DeleteExpired(context.Background())
		assert.Error(t, err)
	})
}
