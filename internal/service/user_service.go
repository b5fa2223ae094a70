package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// UserService handles operations on the caller's own account
type UserService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	passwordCfg *auth.PasswordConfig
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	passwordCfg *auth.PasswordConfig,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		passwordCfg: passwordCfg,
	}
}

type accountFields struct {
	Username string
	Email    string
	Password string
	FullName string
	Role     string
}

// createAccount checks uniqueness, hashes the password and stores a user.
func createAccount(ctx context.Context, users repository.UserRepository, cfg *auth.PasswordConfig, f accountFields) (*models.User, error) {
	if err := ensureUnique(ctx, users, f.Username, f.Email); err != nil {
		return nil, err
	}

	passwordHash, salt, err := auth.HashPassword(f.Password, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(f.Username, f.Email, strings.TrimSpace(f.FullName), f.Role)
	user.PasswordHash = passwordHash
	user.Salt = salt

	if err := users.Create(ctx, user); err != nil {
		if utils.IsDuplicateError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// ensureUnique rejects a username or email that is already taken. Empty
// values are skipped.
func ensureUnique(ctx context.Context, users repository.UserRepository, username, email string) error {
	if username != "" {
		exists, err := users.ExistsByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to check username existence: %w", err)
		}
		if exists {
			return utils.NewDuplicateError("User", constants.ColumnUsername, username)
		}
	}

	if email != "" {
		exists, err := users.ExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check email existence: %w", err)
		}
		if exists {
			return utils.NewDuplicateError("User", constants.ColumnEmail, email)
		}
	}

	return nil
}

// applyProfile copies the non-empty fields onto user after checking that a
// new username or email is free. It reports whether anything changed.
func applyProfile(ctx context.Context, users repository.UserRepository, user *models.User, username, email, fullName string) (bool, error) {
	newUsername, newEmail := "", ""
	if username != "" && !strings.EqualFold(username, user.Username) {
		newUsername = username
	}
	if email != "" && !strings.EqualFold(email, user.Email) {
		newEmail = email
	}
	if err := ensureUnique(ctx, users, newUsername, newEmail); err != nil {
		return false, err
	}

	changed := false
	if username != "" && username != user.Username {
		user.Username = username
		changed = true
	}
	if email != "" && email != user.Email {
		user.Email = email
		changed = true
	}
	if fullName = strings.TrimSpace(fullName); fullName != "" && fullName != user.FullName {
		user.FullName = fullName
		changed = true
	}

	return changed, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

// UpdateUser updates the caller's profile information
func (s *UserService) UpdateUser(ctx context.Context, id int64, update *models.UserUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := applyProfile(ctx, s.userRepo, user, update.Username, update.Email, update.FullName)
	if err != nil {
		return nil, err
	}

	if changed {
		if err := s.userRepo.Update(ctx, user); err != nil {
			if utils.IsDuplicateError(err) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		utils.LogAuth(constants.LogEventUserUpdate, idString(user.ID), user.Username, true, "")
	}

	return user.Sanitize(), nil
}

// ChangePassword replaces the caller's password after checking the current
// one. Every session is ended afterwards.
func (s *UserService) ChangePassword(ctx context.Context, id int64, change *models.PasswordChange) error {
	if change.NewPassword != change.ConfirmPassword {
		return utils.NewValidationError("confirm_password", "Passwords do not match")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	match, err := auth.VerifyPassword(change.CurrentPassword, user.PasswordHash, user.Salt, s.passwordCfg)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return utils.NewInvalidCredentialsError()
	}

	return setPassword(ctx, s.userRepo, s.sessionRepo, s.passwordCfg, id, change.NewPassword)
}

func setPassword(ctx context.Context, users repository.UserRepository, sessions repository.SessionRepository, cfg *auth.PasswordConfig, id int64, password string) error {
	if err := utils.ValidatePassword(password); err != nil {
		return err
	}

	passwordHash, salt, err := auth.HashPassword(password, cfg)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := users.ChangePassword(ctx, id, passwordHash, salt); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	if _, err := sessions.DeleteByUserID(ctx, id); err != nil {
		log.Error().
			Err(err).
			Int64(constants.UserIDContextKey, id).
			Msg("Failed to invalidate sessions after password change")
	}

	return nil
}

// DeleteUser permanently removes an account. Sessions and predictions are
// removed by the database cascade.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if utils.IsNotFoundError(err) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	utils.LogAuth(constants.LogEventUserDelete, idString(id), "", true, "")

	return nil
}

// CheckUsername verifies if a username is available
func (s *UserService) CheckUsername(ctx context.Context, username string) (bool, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return false, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username availability: %w", err)
	}

	return !exists, nil
}

// CheckEmail verifies if an email is available
func (s *UserService) CheckEmail(ctx context.Context, email string) (bool, error) {
	if !utils.IsValidEmail(email) {
		return false, utils.NewValidationError(constants.ColumnEmail, "Invalid email format")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email availability: %w", err)
	}

	return !exists, nil
}
