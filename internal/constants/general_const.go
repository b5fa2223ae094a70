// Package constants provides shared constant values used throughout the application.
//
// The general_const.go file defines route paths, URL parameters and query
// parameters so handlers, routes and tests agree on the API surface.
package constants

// Base Routes
const (
	APIBasePath = "/api"
	HealthPath  = "/health"
	VersionPath = "/version"
	RoutesPath  = "/api/routes"
	ModelsPath  = "/api/models"
	PredictPath = "/api/predict"
)

// Authentication Routes
const (
	AuthRegisterPath  = "/api/auth/signup"
	AuthLoginPath     = "/api/auth/login"
	AuthRefreshPath   = "/api/auth/refresh"
	AuthLogoutPath    = "/api/auth/logout"
	AuthLogoutAllPath = "/api/auth/logout-all"
	AuthVerifyPath    = "/api/auth/verify"
)

// User Routes
const (
	UserCheckUsernamePath  = "/api/users/check/username"
	UserCheckEmailPath     = "/api/users/check/email"
	UserProfilePath        = "/api/users/me"
	UserChangePasswordPath = "/api/users/me/change-password"
)

// Prediction and admin routes
const (
	PredictionsBasePath       = "/api/predictions"
	AdminDashboardPath        = "/api/admin/dashboard"
	AdminUsersPath            = "/api/admin/users"
	AdminPredictionsPath      = "/api/admin/predictions"
	AdminPredictionExportPath = "/api/admin/predictions/export/{format}"
)

// URL Parameters
const (
	ParamID     = "id"
	ParamFormat = "format"
)

// Query Parameters
const (
	QueryParamPage      = "page"
	QueryParamPageSize  = "page_size"
	QueryParamUsername  = "username"
	QueryParamEmail     = "email"
	QueryParamStartDate = "start_date"
	QueryParamEndDate   = "end_date"
)

// DateLayout is the layout of start_date and end_date query parameters.
const DateLayout = "2006-01-02"
