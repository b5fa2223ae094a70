package constants

// Context Key Names
const (
	UserIDContextKey    = "user_id"
	UsernameContextKey  = "username"
	EmailContextKey     = "email"
	RoleContextKey      = "role"
	RequestIDContextKey = "request_id"
)

// Auth Token Types
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Account Validation
const (
	MinPasswordLength = 6
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MaxEmailLength    = 255
	MaxFullNameLength = 100
)

// Roles
const (
	RolePatient = "patient"
	RoleAdmin   = "admin"
)

// Cookie Names
const (
	RefreshTokenCookie = "refresh_token"
	AuthTokenCookie    = "auth_token"
	CSRFTokenCookie    = "csrf_token"
)

// Rate limit categories
const (
	RateCategoryAuth    = "auth"
	RateCategoryPredict = "predict"
)
