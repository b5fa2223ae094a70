package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
)

// Session tracks one issued refresh token so it can be revoked.
type Session struct {
	ID        string    `json:"id" db:"session_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	JWTID     string    `json:"jwt_id" db:"jwt_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the Session model.
func (s *Session) TableName() string {
	return constants.TableSessions
}

// NewSession creates a session for the refresh token jwtID, valid for
// expiryDuration.
func NewSession(userID int64, jwtID string, expiryDuration time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		JWTID:     jwtID,
		ExpiresAt: now.Add(expiryDuration),
		CreatedAt: now,
	}
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
