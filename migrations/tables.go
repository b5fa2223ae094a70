package migrations

import (
	"context"
	"database/sql"
)

// execAll runs each statement in order, stopping at the first error.
func execAll(ctx context.Context, tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// createUsersTable creates the users table. Unique constraints are named
// idx_<column> so duplicate errors can name the offending field. Usernames
// and emails are also unique ignoring case.
func createUsersTable() Migration {
	return Migration{
		Name:        "create_users_table",
		Description: "Creates the users table",
		TableName:   "users",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS users (
					user_id BIGSERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL,
					email VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					salt VARCHAR(255) NOT NULL,
					full_name VARCHAR(100) NOT NULL DEFAULT '',
					role VARCHAR(20) NOT NULL DEFAULT 'patient',
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT idx_username UNIQUE (username),
					CONSTRAINT idx_email UNIQUE (email),
					CONSTRAINT chk_users_role CHECK (role IN ('patient', 'admin'))
				)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_username_lower ON users (LOWER(username))`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_email_lower ON users (LOWER(email))`,
				`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
			)
		},
	}
}

// createSessionsTable creates the refresh-token sessions table
func createSessionsTable() Migration {
	return Migration{
		Name:        "create_sessions_table",
		Description: "Creates the sessions table",
		TableName:   "sessions",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS sessions (
					session_id VARCHAR(255) PRIMARY KEY,
					user_id BIGINT NOT NULL,
					jwt_id VARCHAR(255) NOT NULL,
					expires_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
				)`,
				`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_jwt_id ON sessions(jwt_id)`,
				`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,
			)
		},
	}
}

// createPredictionsTable creates the table of submitted clinical inputs.
// Categorical values are stored as submitted and encoding_version records
// the table used to encode them.
func createPredictionsTable() Migration {
	return Migration{
		Name:        "create_predictions_table",
		Description: "Creates the predictions table",
		TableName:   "predictions",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS predictions (
					prediction_id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL,
					age INTEGER NOT NULL,
					sex VARCHAR(1) NOT NULL,
					chest_pain_type VARCHAR(3) NOT NULL,
					resting_bp INTEGER NOT NULL,
					cholesterol INTEGER NOT NULL,
					fasting_bs SMALLINT NOT NULL,
					resting_ecg VARCHAR(6) NOT NULL,
					max_hr INTEGER NOT NULL,
					exercise_angina VARCHAR(1) NOT NULL,
					oldpeak DOUBLE PRECISION NOT NULL,
					st_slope VARCHAR(4) NOT NULL,
					encoding_version INTEGER NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT fk_predictions_user FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE,
					CONSTRAINT chk_predictions_fasting_bs CHECK (fasting_bs IN (0, 1))
				)`,
				`CREATE INDEX IF NOT EXISTS idx_predictions_user_created ON predictions(user_id, created_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at)`,
			)
		},
	}
}

// createPredictionResultsTable creates the per-model results table
func createPredictionResultsTable() Migration {
	return Migration{
		Name:        "create_prediction_results_table",
		Description: "Creates the prediction_results table",
		TableName:   "prediction_results",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			return execAll(ctx, tx, `
				CREATE TABLE IF NOT EXISTS prediction_results (
					result_id BIGSERIAL PRIMARY KEY,
					prediction_id BIGINT NOT NULL,
					model_key VARCHAR(32) NOT NULL,
					model_name VARCHAR(100) NOT NULL,
					label VARCHAR(64) NOT NULL,
					positive BOOLEAN NOT NULL,
					probability_percent DOUBLE PRECISION NOT NULL,
					risk_tier VARCHAR(10) NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT fk_results_prediction FOREIGN KEY (prediction_id) REFERENCES predictions(prediction_id) ON DELETE CASCADE,
					CONSTRAINT idx_results_prediction_model UNIQUE (prediction_id, model_key),
					CONSTRAINT chk_results_tier CHECK (risk_tier IN ('low', 'medium', 'high'))
				)`,
				`CREATE INDEX IF NOT EXISTS idx_results_tier ON prediction_results(risk_tier)`,
			)
		},
	}
}
