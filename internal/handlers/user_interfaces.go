package handlers

import (
	"context"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
)

// UserServiceInterface defines the self-service account operations.
type UserServiceInterface interface {
	// GetUserByID retrieves a user by their unique identifier.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// UpdateUser changes the non-empty fields of update.
	//
	// Returns:
	//   - The updated user
	//   - A duplicate error when the new username or email is taken
	UpdateUser(ctx context.Context, id int64, update *models.UserUpdate) (*models.User, error)

	// ChangePassword verifies the current password and stores the new one.
	// Every session of the user is closed afterwards.
	ChangePassword(ctx context.Context, id int64, change *models.PasswordChange) error

	// DeleteUser removes the account together with its sessions and
	// predictions.
	DeleteUser(ctx context.Context, id int64) error

	// CheckUsername reports whether username is still available.
	CheckUsername(ctx context.Context, username string) (bool, error)

	// CheckEmail reports whether email is still available.
	CheckEmail(ctx context.Context, email string) (bool, error)
}
