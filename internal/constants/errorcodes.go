// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines error categories, user-facing messages and the
// PostgreSQL error codes the repositories translate. User-facing messages name
// the offending input without exposing internals.
package constants

// Error Types define the categories of errors that can occur in the application.
const (
	ErrorNotFound           = "resource not found"
	ErrorUnauthorized       = "unauthorized access"
	ErrorForbidden          = "forbidden access"
	ErrorBadRequest         = "invalid request"
	ErrorInternalServer     = "internal server error"
	ErrorValidation         = "validation error"
	ErrorDuplicate          = "duplicate resource"
	ErrorInvalidCredentials = "invalid credentials"
	ErrorExpiredToken       = "expired token"
	ErrorInvalidToken       = "invalid token"
)

// User-Facing Error Messages
const (
	MsgAuthRequired          = "Authentication required"
	MsgPasswordsDoNotMatch   = "Passwords do not match"
	MsgInvalidPassword       = "Invalid username/email or password"
	MsgAccessDenied          = "You don't have permission to access this resource"
	MsgInternalServerError   = "An internal server error occurred"
	MsgTokenExpired          = "Authentication token has expired"
	MsgInvalidToken          = "Invalid token"
	MsgRequestBodyTooLarge   = "Request body too large"
	MsgEmptyRequestBody      = "Request body must not be empty"
	MsgMalformedJSON         = "Request body contains malformed JSON"
	MsgResourceNotFound      = "The requested resource could not be found"
	MsgResourceAlreadyExists = "A resource with the same unique identifier already exists"
	MsgMethodNotAllowed      = "This method is not allowed for this resource"
	MsgUserDeleted           = "Account successfully deleted"
	MsgPasswordChanged       = "Password successfully changed"
	MsgSessionInvalidated    = "Session successfully invalidated"
	MsgLogoutSuccess         = "Successfully logged out"
	MsgLogoutAllSuccess      = "Successfully logged out of all sessions"
	MsgUsernameTaken         = "Username already exists"
	MsgEmailTaken            = "Email already registered"
	MsgRateLimited           = "Too many requests, please try again later"
	MsgCannotDeleteSelf      = "Administrators cannot delete their own account here"
	MsgServiceUnhealthy      = "Service is not healthy"
)

// Inference endpoint messages. The endpoint answers with a flat {"error": msg} body.
const (
	MsgRequestMustBeJSON  = "Request must be JSON"
	MsgNoDataProvided     = "No data provided"
	MsgBodyNotObject      = "Request body must be a JSON object"
	MsgModelNotLoaded     = "ML model not properly loaded"
	MsgInferenceFailed    = "An error occurred during classification"
	MsgPredictionNotSaved = "Classification succeeded but was not saved"
	MsgPredictionNotFound = "Prediction not found"
	MsgPredictionDeleted  = "Prediction successfully deleted"
	MsgDateRangeRequired  = "Start date and end date are both required for a date range"
	MsgInvalidDate        = "Dates must use the YYYY-MM-DD format"
	MsgInvalidDateRange   = "Start date must not be after end date"
	MsgUnknownExport      = "Unsupported export format"
)

// Database Error Types
const (
	// DBErrorDuplicateKey is the PostgreSQL message prefix for unique violations.
	DBErrorDuplicateKey = "duplicate key value violates unique constraint"

	PGErrorDuplicateConstraint  = "23505"
	PGErrorForeignKeyConstraint = "23503"
	PGErrorNotNullConstraint    = "23502"
)

// Logger Constants
const (
	LogCategoryUser       = "user"
	LogCategoryAuth       = "auth"
	LogCategoryPrediction = "prediction"

	LogEventLogin      = "login"
	LogEventRegister   = "register"
	LogEventLogout     = "logout"
	LogEventUserUpdate = "user_update"
	LogEventUserDelete = "user_delete"

	// LogRedactedValue replaces sensitive values in logs.
	LogRedactedValue = "[REDACTED]"
)
