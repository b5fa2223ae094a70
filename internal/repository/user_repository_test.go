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
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

var userRowColumns = []string{
	"user_id", "username", "email", "password_hash", "salt", "full_name", "role", "created_at", "updated_at",
}

// setupUserRepositoryTest creates a repository backed by sqlmock
func setupUserRepositoryTest(t *testing.T) (repository.UserRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewUserRepository(&database.Pool{DB: db}), mock
}

func newTestUser() *models.User {
	return &models.User{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: "hashed_password",
		Salt:         "salt_value",
		FullName:     "John Doe",
	}
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)
	user := newTestUser()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(user.Username, user.Email, user.PasswordHash, user.Salt, user.FullName,
			constants.RolePatient, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	err := repo.Create(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, constants.RolePatient, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		field      string
	}{
		{"username", "idx_username", "username"},
		{"email", "idx_email", "email"},
		{"username ignoring case", "idx_username_lower", "username"},
		{"email ignoring case", "idx_email_lower", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupUserRepositoryTest(t)
			user := newTestUser()

			mock.ExpectQuery("INSERT INTO users").
				WillReturnError(&pq.Error{Code: constants.PGErrorDuplicateConstraint, Constraint: tt.constraint})

			err := repo.Create(context.Background(), user)

			require.Error(t, err)
			assert.True(t, utils.IsDuplicateError(err))
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Create_DatabaseError(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)

	mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), newTestUser())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
	assert.False(t, utils.IsDuplicateError(err))
}

func TestUserRepository_Lookups(t *testing.T) {
	now := time.Now()
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(userRowColumns).
			AddRow(3, "jdoe", "jdoe@example.com", "hash", "salt", "John Doe", constants.RolePatient, now, now)
	}

	tests := []struct {
		name string
		call func(repository.UserRepository) (*models.User, error)
		arg  interface{}
	}{
		{"by id", func(r repository.UserRepository) (*models.User, error) { return r.GetByID(context.Background(), 3) }, int64(3)},
		{"by username", func(r repository.UserRepository) (*models.User, error) {
			return r.GetByUsername(context.Background(), "JDoe")
		}, "JDoe"},
		{"by email", func(r repository.UserRepository) (*models.User, error) {
			return r.GetByEmail(context.Background(), "jdoe@example.com")
		}, "jdoe@example.com"},
		{"by identifier", func(r repository.UserRepository) (*models.User, error) {
			return r.GetByIdentifier(context.Background(), "jdoe")
		}, "jdoe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupUserRepositoryTest(t)

			mock.ExpectQuery("SELECT (.+) FROM users").WithArgs(tt.arg).WillReturnRows(row())

			user, err := tt.call(repo)

			require.NoError(t, err)
			assert.Equal(t, int64(3), user.ID)
			assert.Equal(t, "John Doe", user.FullName)
			assert.Equal(t, constants.RolePatient, user.Role)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)

	mock.ExpectQuery("SELECT (.+) FROM users").WithArgs(int64(42)).WillReturnError(sql.ErrNoRows)

	user, err := repo.GetByID(context.Background(), 42)

	assert.Nil(t, user)
	assert.True(t, utils.IsNotFoundError(err))
}

func TestUserRepository_GetByUsername_DatabaseError(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)

	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnError(errors.New("timeout"))

	_, err := repo.GetByUsername(context.Background(), "jdoe")

	require.Error(t, err)
	assert.False(t, utils.IsNotFoundError(err))
	assert.Contains(t, err.Error(), "failed to get user")
}

func TestUserRepository_List(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM users ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(2, "admin", "admin@example.com", "h", "s", "Admin", constants.RoleAdmin, now, now).
			AddRow(1, "jdoe", "jdoe@example.com", "h", "s", "John Doe", constants.RolePatient, now, now))

	users, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, constants.RoleAdmin, users[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CountByRole(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)

	mock.ExpectQuery("SELECT COUNT").WithArgs(constants.RolePatient).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountByRole(context.Background(), constants.RolePatient)

	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestUserRepository_Update(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupUserRepositoryTest(t)
		user := newTestUser()
		user.ID = 5
		user.Role = constants.RoleAdmin

		mock.ExpectExec("UPDATE users").
			WithArgs(user.Username, user.Email, user.FullName, user.Role, sqlmock.AnyArg(), user.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupUserRepositoryTest(t)
		user := newTestUser()
		user.ID = 99

		mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), user)
		assert.True(t, utils.IsNotFoundError(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo, mock := setupUserRepositoryTest(t)
		user := newTestUser()
		user.ID = 5

		mock.ExpectExec("UPDATE users").
			WillReturnError(&pq.Error{Code: constants.PGErrorDuplicateConstraint, Constraint: "idx_email"})

		err := repo.Update(context.Background(), user)
		assert.True(t, utils.IsDuplicateError(err))
		assert.Contains(t, err.Error(), "email")
	})

	t.Run("rows affected error", func(t *testing.T) {
		repo, mock := setupUserRepositoryTest(t)
		user := newTestUser()
		user.ID = 5

		mock.ExpectExec("UPDATE users").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected error")))

		err := repo.Update(context.Background(), user)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get rows affected")
	})
}

func TestUserRepository_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupUserRepositoryTest(t)

		mock.ExpectExec("DELETE FROM users").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupUserRepositoryTest(t)

		mock.ExpectExec("DELETE FROM users").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.True(t, utils.IsNotFoundError(repo.Delete(context.Background(), 5)))
	})

	t.Run("exec error", func(t *testing.T) {
		repo, mock := setupUserRepositoryTest(t)

		mock.ExpectExec("DELETE FROM users").WillReturnError(errors.New("boom"))

		err := repo.Delete(context.Background(), 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete user")
	})
}

func TestUserRepository_ChangePassword(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)

	mock.ExpectExec("UPDATE users").
		WithArgs("new_hash", "new_salt", sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ChangePassword(context.Background(), 5, "new_hash", "new_salt"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ChangePassword_NotFound(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)

	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.True(t, utils.IsNotFoundError(repo.ChangePassword(context.Background(), 5, "h", "s")))
}

func TestUserRepository_Exists(t *testing.T) {
	repo, mock := setupUserRepositoryTest(t)

	mock.ExpectQuery("SELECT EXISTS").WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("none@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("broken").
		WillReturnError(errors.New("boom"))

	exists, err := repo.ExistsByUsername(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(context.Background(), "none@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.ExistsByUsername(context.Background(), "broken")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
