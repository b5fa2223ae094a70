// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines fallback configuration values and limits.
package constants

// Default Pagination Values
const (
	// DefaultPage is the page returned when none is requested.
	DefaultPage = 1

	// DefaultPageSize is the number of items per page when not specified.
	DefaultPageSize = 20

	// MaxPageSize caps the page size a client may request.
	MaxPageSize = 100

	// MinPageSize is the smallest allowed page size.
	MinPageSize = 1

	// DashboardRecentLimit is the number of recent predictions on the admin dashboard.
	DashboardRecentLimit = 5
)

// Default Configuration Values
const (
	DefaultAppName          = "HeartRisk API"
	DefaultServerHost       = "0.0.0.0"
	DefaultServerPort       = 8080
	DefaultDBHost           = "localhost"
	DefaultDBPort           = 5432
	DefaultDBMaxConnections = 20
	DefaultDBMinConnections = 5
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// MaxRequestBodySize is the maximum size in bytes for HTTP request bodies.
const MaxRequestBodySize = 1048576 // 1MB

// Default Password Hash Settings for Argon2id.
const (
	DefaultPasswordHashMemory      = 64 * 1024
	DefaultPasswordHashIterations  = 3
	DefaultPasswordHashParallelism = 2
	DefaultPasswordHashSaltLength  = 16
	DefaultPasswordHashKeyLength   = 32

	// DevPasswordHashMemory and DevPasswordHashIterations make development startup cheaper.
	DevPasswordHashMemory     = 16 * 1024
	DevPasswordHashIterations = 1
)

// Auth Constants
const (
	// DefaultJWTIssuer is the issuer claim value for JWT tokens.
	DefaultJWTIssuer = "heartrisk-api"

	// BearerTokenPrefix is the prefix for Authorization header bearer tokens.
	BearerTokenPrefix = "Bearer "
)

// Seed administrator created when no administrator exists.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin123"
	DefaultAdminFullName = "Admin User"
)

// Default rate limits, in requests per second and burst size.
const (
	DefaultAuthRatePerSecond    = 0.2
	DefaultAuthRateBurst        = 5
	DefaultPredictRatePerSecond = 2
	DefaultPredictRateBurst     = 10
)
