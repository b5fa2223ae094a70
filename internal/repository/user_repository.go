package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// UserRepository defines methods for interacting with user data
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	CountByRole(ctx context.Context, role string) (int, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	ChangePassword(ctx context.Context, id int64, passwordHash, salt string) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// PostgresUserRepository is a PostgreSQL implementation of UserRepository
type PostgresUserRepository struct {
	db *database.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Pool) UserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

const userColumns = `user_id, username, email, password_hash, salt, full_name, role, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&user.FullName,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// duplicateUserError maps a unique violation onto the offending field.
func duplicateUserError(err error, user *models.User) error {
	if utils.PGErrorCode(err) != constants.PGErrorDuplicateConstraint {
		return nil
	}
	constraint := utils.PGConstraint(err)
	switch {
	case strings.Contains(constraint, constants.ColumnUsername):
		return utils.NewDuplicateError("User", constants.ColumnUsername, user.Username)
	case strings.Contains(constraint, constants.ColumnEmail):
		return utils.NewDuplicateError("User", constants.ColumnEmail, user.Email)
	default:
		return utils.ParseError(err)
	}
}

// Create adds a new user to the database
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	startTime := time.Now()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = constants.RolePatient
	}

	query := `
        INSERT INTO users (username, email, password_hash, salt, full_name, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING user_id
    `

	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Salt,
		user.FullName,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	utils.LogDBQuery(
		query,
		[]interface{}{user.Username, user.Email, constants.LogRedactedValue, constants.LogRedactedValue, user.FullName, user.Role, user.CreatedAt, user.UpdatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if dupErr := duplicateUserError(err, user); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Int64(constants.UserIDContextKey, user.ID).
		Str(constants.UsernameContextKey, user.Username).
		Str(constants.RoleContextKey, user.Role).
		Msg("User created")

	return nil
}

// getOne runs a single-row user query.
func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg interface{}, notFound interface{}) (*models.User, error) {
	startTime := time.Now()

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))

	utils.LogDBQuery(query, []interface{}{arg}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", notFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.getOne(ctx, query, id, id)
}

// GetByUsername retrieves a user by username, ignoring case
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`
	return r.getOne(ctx, query, username, fmt.Sprintf("username=%s", username))
}

// GetByEmail retrieves a user by email, ignoring case
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.getOne(ctx, query, email, fmt.Sprintf("email=%s", email))
}

// GetByIdentifier retrieves a user whose username or email matches
// identifier. A username match is preferred.
func (r *PostgresUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users
        WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
        ORDER BY (LOWER(username) = LOWER($1)) DESC
        LIMIT 1
    `
	return r.getOne(ctx, query, identifier, identifier)
}

// List returns every user, newest first.
func (r *PostgresUserRepository) List(ctx context.Context) ([]*models.User, error) {
	startTime := time.Now()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, user_id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	utils.LogDBQuery(query, nil, time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// CountByRole counts the users with role.
func (r *PostgresUserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	startTime := time.Now()

	query := `SELECT COUNT(*) FROM users WHERE role = $1`

	var count int
	err := r.db.QueryRowContext(ctx, query, role).Scan(&count)
	utils.LogDBQuery(query, []interface{}{role}, time.Since(startTime), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

// Update writes the profile fields and role of user
func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	startTime := time.Now()

	user.UpdatedAt = time.Now()

	query := `
        UPDATE users
        SET username = $1, email = $2, full_name = $3, role = $4, updated_at = $5
        WHERE user_id = $6
    `

	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.FullName,
		user.Role,
		user.UpdatedAt,
		user.ID,
	)

	utils.LogDBQuery(
		query,
		[]interface{}{user.Username, user.Email, user.FullName, user.Role, user.UpdatedAt, user.ID},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if dupErr := duplicateUserError(err, user); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := expectAffected(result, "User", user.ID); err != nil {
		return err
	}

	log.Info().
		Int64(constants.UserIDContextKey, user.ID).
		Str(constants.UsernameContextKey, user.Username).
		Msg("User updated")

	return nil
}

// Delete removes a user. Sessions and predictions go with it through
// ON DELETE CASCADE.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	startTime := time.Now()

	query := "DELETE FROM users WHERE user_id = $1"
	result, err := r.db.ExecContext(ctx, query, id)

	utils.LogDBQuery(query, []interface{}{id}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := expectAffected(result, "User", id); err != nil {
		return err
	}

	log.Info().
		Int64(constants.UserIDContextKey, id).
		Msg("User deleted")

	return nil
}

// ChangePassword updates a user's password
func (r *PostgresUserRepository) ChangePassword(ctx context.Context, id int64, passwordHash, salt string) error {
	startTime := time.Now()

	query := `
        UPDATE users
        SET password_hash = $1, salt = $2, updated_at = $3
        WHERE user_id = $4
    `

	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, passwordHash, salt, now, id)

	utils.LogDBQuery(query, []interface{}{passwordHash, salt, now, id}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := expectAffected(result, "User", id); err != nil {
		return err
	}

	log.Info().
		Int64(constants.UserIDContextKey, id).
		Msg("User password changed")

	return nil
}

// ExistsByUsername checks if a user with the given username exists
func (r *PostgresUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username)
}

// ExistsByEmail checks if a user with the given email exists
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email)
}

func (r *PostgresUserRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	startTime := time.Now()

	var exists bool
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&exists)

	utils.LogDBQuery(query, []interface{}{arg}, time.Since(startTime), err)

	if err != nil {
		return false, fmt.Errorf("failed to check if user exists: %w", err)
	}

	return exists, nil
}

// expectAffected turns a zero-row write into a not found error.
func expectAffected(result sql.Result, resource string, id interface{}) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError(resource, id)
	}
	return nil
}
