// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file holds table, column and index names so SQL in the
// repositories, migrations and seeds refers to one definition of the schema.
package constants

// Table Names
const (
	// TableUsers stores patient and administrator accounts.
	TableUsers = "users"

	// TableSessions stores refresh-token sessions.
	TableSessions = "sessions"

	// TablePredictions stores one row per submitted set of clinical inputs.
	TablePredictions = "predictions"

	// TablePredictionResults stores one row per model for each prediction.
	TablePredictionResults = "prediction_results"

	// TableMigrations records applied schema migrations.
	TableMigrations = "migrations"

	// TableSeeds records applied seed scripts.
	TableSeeds = "seeds"
)

// Common Column Names
const (
	ColumnUserID       = "user_id"
	ColumnUsername     = "username"
	ColumnEmail        = "email"
	ColumnPasswordHash = "password_hash"
	ColumnSalt         = "salt"
	ColumnFullName     = "full_name"
	ColumnRole         = "role"
	ColumnCreatedAt    = "created_at"
	ColumnUpdatedAt    = "updated_at"
	ColumnExpiresAt    = "expires_at"
	ColumnSessionID    = "session_id"
	ColumnJWTID        = "jwt_id"
	ColumnPredictionID = "prediction_id"
	ColumnResultID     = "result_id"
	ColumnModelKey     = "model_key"
	ColumnRiskTier     = "risk_tier"
)

// Index Names
const (
	// IndexJWTID is the unique index on session JWT identifiers.
	IndexJWTID = "idx_jwt_id"

	// IndexPredictionsUserCreated supports newest-first history listing.
	IndexPredictionsUserCreated = "idx_predictions_user_created"

	// IndexPredictionsCreated supports date-range export and the dashboard.
	IndexPredictionsCreated = "idx_predictions_created"

	// IndexResultsPredictionModel enforces one result per model and prediction.
	IndexResultsPredictionModel = "idx_results_prediction_model"
)

// SchemaInformation is the PostgreSQL information schema.
const SchemaInformation = "information_schema"

// Database drivers accepted in the database configuration.
const (
	// DriverPostgres selects github.com/lib/pq.
	DriverPostgres = "postgres"

	// DriverPgx selects github.com/jackc/pgx/v5/stdlib.
	DriverPgx = "pgx"
)

// PostgreSQL connection string fragments.
const (
	PostgresSSLDisable     = "disable"
	PostgresConnectTimeout = 15
)
