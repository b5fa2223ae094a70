// Package constants provides shared constant values used throughout the application.
//
// The httpcodes.go file defines response codes, header names, content types and
// security header values shared by the utils response writers and middleware.
package constants

// Response envelope flags.
const (
	ResponseSuccess = true
	ResponseFailure = false
)

// Application error codes carried in the response envelope.
const (
	CodeBadRequest           = "bad_request"
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeMethodNotAllowed     = "method_not_allowed"
	CodeConflict             = "conflict"
	CodeInternalError        = "internal_error"
	CodeValidationError      = "validation_error"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeTokenExpired         = "token_expired"
	CodeTokenInvalid         = "token_invalid"
	CodeDuplicateResource    = "duplicate_resource"
	CodeAuthenticationFailed = "authentication_failed"
	CodeRateLimited          = "rate_limited"
	CodeServiceUnavailable   = "service_unavailable"
	CodeInferenceFailed      = "inference_failed"
	CodePersistenceFailed    = "persistence_failed"
)

// HTTP Header Names
const (
	HeaderContentType           = "Content-Type"
	HeaderContentLength         = "Content-Length"
	HeaderContentDisposition    = "Content-Disposition"
	HeaderCacheControl          = "Cache-Control"
	HeaderPragma                = "Pragma"
	HeaderExpires               = "Expires"
	HeaderAuthorization         = "Authorization"
	HeaderOrigin                = "Origin"
	HeaderXRequestID            = "X-Request-ID"
	HeaderRetryAfter            = "Retry-After"
	HeaderXContentTypeOptions   = "X-Content-Type-Options"
	HeaderXFrameOptions         = "X-Frame-Options"
	HeaderXXSSProtection        = "X-XSS-Protection"
	HeaderReferrerPolicy        = "Referrer-Policy"
	HeaderContentSecurityPolicy = "Content-Security-Policy"
)

// HTTP Content Types
const (
	ContentTypeJSON        = "application/json"
	ContentTypeCSV         = "text/csv"
	ContentTypePDF         = "application/pdf"
	ContentTypeOctetStream = "application/octet-stream"
)

// Security Header Values
const (
	FrameOptionsDeny           = "DENY"
	XSSProtectionModeBlock     = "1; mode=block"
	ContentTypeOptionsNoSniff  = "nosniff"
	ReferrerPolicyStrictOrigin = "strict-origin-when-cross-origin"
	CSPDefaultSrc              = "default-src 'self'"
	CacheControlNoStore        = "no-cache, no-store, must-revalidate"
	PragmaNoCache              = "no-cache"
	ExpiresZero                = "0"
)
