// Package models holds the persisted entities of the HeartRisk API and the
// request and response shapes built from them.
package models

import (
	"time"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
)

// User is a patient or administrator account.
type User struct {
	ID           int64     `json:"id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Salt         string    `json:"-" db:"salt"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates an unsaved user. Password fields are set by the caller.
func NewUser(username, email, fullName, role string) *User {
	if role == "" {
		role = constants.RolePatient
	}
	now := time.Now()
	return &User{
		Username:  username,
		Email:     email,
		FullName:  fullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TableName returns the database table name for the User model.
func (u *User) TableName() string {
	return constants.TableUsers
}

// IsAdmin reports whether the account has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == constants.RoleAdmin
}

// Sanitize returns a copy without credential material.
func (u *User) Sanitize() *User {
	sanitized := *u
	sanitized.PasswordHash = ""
	sanitized.Salt = ""
	return &sanitized
}

// UserCredentials is a login request. Either field may carry a username or
// an email address.
type UserCredentials struct {
	Username string `json:"username" validate:"required_without=Email,omitempty,max=255"`
	Email    string `json:"email" validate:"required_without=Username,omitempty,max=255"`
	Password string `json:"password" validate:"required"`
}

// Identifier returns whichever login identifier was supplied.
func (c *UserCredentials) Identifier() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Email
}

// UserRegistration is a patient signup request.
type UserRegistration struct {
	Username        string `json:"username" validate:"required,min=3,max=50,username"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FullName        string `json:"full_name" validate:"required,max=100"`
}

// UserUpdate changes profile fields. Empty fields are left unchanged.
type UserUpdate struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	FullName string `json:"full_name" validate:"omitempty,max=100"`
}

// PasswordChange is a request to replace the caller's password.
type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// AdminUserCreate is an administrator's request to create an account with
// any role.
type AdminUserCreate struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Role     string `json:"role" validate:"required,role"`
}

// AdminUserUpdate is an administrator's edit of an account. An empty
// password keeps the current one.
type AdminUserUpdate struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	FullName string `json:"full_name" validate:"omitempty,max=100"`
	Role     string `json:"role" validate:"omitempty,role"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// UserList splits accounts by role for the admin console.
type UserList struct {
	Admins   []*User `json:"admins"`
	Patients []*User `json:"patients"`
}
