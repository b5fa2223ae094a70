// Package repository holds the PostgreSQL data access layer for accounts,
// refresh-token sessions and stored predictions.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// SessionRepository tracks the refresh tokens that are still allowed to
// mint new access tokens.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByJWTID(ctx context.Context, jwtID string) (*models.Session, error)
	IsValidSession(ctx context.Context, jwtID string) (bool, error)
	DeleteByJWTID(ctx context.Context, jwtID string) error
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostgresSessionRepository is a PostgreSQL implementation of SessionRepository.
type PostgresSessionRepository struct {
	db *database.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *database.Pool) SessionRepository {
	return &PostgresSessionRepository{
		db: db,
	}
}

// Create adds a new session to the database.
//
// Parameters:
//   - ctx: Context for cancellation control
//   - session: The session to store
//
// Returns:
//   - DuplicateError if a session with the same ID or JWT ID already exists
//   - Other errors for database issues
//
// If the session ID is empty, a new UUID is generated.
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	startTime := time.Now()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sessions (session_id, user_id, jwt_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.JWTID,
		session.ExpiresAt,
		session.CreatedAt,
	)

	utils.LogDBQuery(
		query,
		[]interface{}{session.ID, session.UserID, session.JWTID, session.ExpiresAt, session.CreatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if utils.PGErrorCode(err) == constants.PGErrorDuplicateConstraint {
			if utils.PGConstraint(err) == constants.IndexJWTID {
				return utils.NewDuplicateError("Session", constants.ColumnJWTID, session.JWTID)
			}
			return utils.NewDuplicateError("Session", "id", session.ID)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	log.Debug().
		Str(constants.ColumnSessionID, session.ID).
		Int64(constants.ColumnUserID, session.UserID).
		Time(constants.ColumnExpiresAt, session.ExpiresAt).
		Msg("Session created")

	return nil
}

// GetByJWTID retrieves the session bound to a refresh token ID.
func (r *PostgresSessionRepository) GetByJWTID(ctx context.Context, jwtID string) (*models.Session, error) {
	startTime := time.Now()

	query := `
		SELECT session_id, user_id, jwt_id, expires_at, created_at
		FROM sessions
		WHERE jwt_id = $1
	`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, jwtID).Scan(
		&session.ID,
		&session.UserID,
		&session.JWTID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	utils.LogDBQuery(query, []interface{}{jwtID}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Session", jwtID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// IsValidSession reports whether an unexpired session exists for jwtID.
func (r *PostgresSessionRepository) IsValidSession(ctx context.Context, jwtID string) (bool, error) {
	startTime := time.Now()

	query := `SELECT EXISTS(SELECT 1 FROM sessions WHERE jwt_id = $1 AND expires_at > $2)`

	now := time.Now()
	var valid bool
	err := r.db.QueryRowContext(ctx, query, jwtID, now).Scan(&valid)

	utils.LogDBQuery(query, []interface{}{jwtID, now}, time.Since(startTime), err)

	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}

	return valid, nil
}

// DeleteByJWTID removes the session of a single refresh token.
func (r *PostgresSessionRepository) DeleteByJWTID(ctx context.Context, jwtID string) error {
	startTime := time.Now()

	query := "DELETE FROM sessions WHERE jwt_id = $1"
	result, err := r.db.ExecContext(ctx, query, jwtID)

	utils.LogDBQuery(query, []interface{}{jwtID}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return expectAffected(result, "Session", jwtID)
}

// DeleteByUserID removes every session of a user and returns how many went.
func (r *PostgresSessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	return r.deleteWhere(ctx, "DELETE FROM sessions WHERE user_id = $1", userID)
}

// DeleteExpired removes sessions past their expiry.
func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	count, err := r.deleteWhere(ctx, "DELETE FROM sessions WHERE expires_at <= $1", time.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int64("count", count).Msg("Expired sessions removed")
	}
	return count, nil
}

func (r *PostgresSessionRepository) deleteWhere(ctx context.Context, query string, arg interface{}) (int64, error) {
	startTime := time.Now()

	result, err := r.db.ExecContext(ctx, query, arg)

	utils.LogDBQuery(query, []interface{}{arg}, time.Since(startTime), err)

	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}
