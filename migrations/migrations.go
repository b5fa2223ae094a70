// Package migrations creates and tracks the database schema.
//
// Each migration creates one table and is recorded in the migrations table
// once applied. A table that already exists is recorded without running its
// SQL, and a recorded table that has gone missing is recreated, so running
// the migrator repeatedly is safe.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
)

// Migration represents a database migration.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// TableName is the table created by this migration, used for existence checks
	TableName string
	// RunSQL executes the migration inside a transaction
	RunSQL func(ctx context.Context, tx *sql.Tx) error
}

// Migrator applies migrations against a pool.
type Migrator struct {
	db         *database.Pool
	migrations []Migration
}

// NewMigrator creates a migrator for the application schema.
func NewMigrator(db *database.Pool) *Migrator {
	return &Migrator{
		db:         db,
		migrations: GetMigrations(),
	}
}

// RunMigrations brings the schema up to date.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered during migration, nil if successful
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Info().Msg("Running database migrations")
	startTime := time.Now()

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	executed, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	run, recorded := 0, 0
	for _, migration := range m.migrations {
		exists, err := m.tableExists(ctx, migration.TableName)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
		}

		switch {
		case exists && executed[migration.Name]:
			continue

		case exists:
			log.Info().
				Str("migration", migration.Name).
				Str("table", migration.TableName).
				Msg("Table already exists, recording migration as completed")

			if err := m.recordMigration(ctx, m.db, migration); err != nil {
				return err
			}
			recorded++

		default:
			if executed[migration.Name] {
				log.Warn().
					Str("migration", migration.Name).
					Str("table", migration.TableName).
					Msg("Recorded table is missing, recreating it")
			}

			if err := m.runMigration(ctx, migration, !executed[migration.Name]); err != nil {
				return err
			}
			run++
		}
	}

	log.Info().
		Int("migrations_run", run).
		Int("migrations_recorded", recorded).
		Int("total_migrations", len(m.migrations)).
		Dur("duration", time.Since(startTime)).
		Msg("Database migrations completed")

	return nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(255) PRIMARY KEY,
			description TEXT,
			executed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, constants.TableMigrations)
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) getExecutedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s`, constants.TableMigrations))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	migrations := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		migrations[name] = true
	}

	return migrations, rows.Err()
}

// runMigration runs the migration SQL and, when record is set, its record
// in one transaction.
func (m *Migrator) runMigration(ctx context.Context, migration Migration, record bool) error {
	log.Info().
		Str("migration", migration.Name).
		Str("table", migration.TableName).
		Msg("Running migration")

	return m.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := migration.RunSQL(ctx, tx); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
		if !record {
			return nil
		}
		return m.recordMigration(ctx, tx, migration)
	})
}

func (m *Migrator) recordMigration(ctx context.Context, q database.Querier, migration Migration) error {
	query := fmt.Sprintf(`INSERT INTO %s (name, description) VALUES ($1, $2)`, constants.TableMigrations)
	if _, err := q.ExecContext(ctx, query, migration.Name, migration.Description); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Name, err)
	}
	return nil
}

func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS(SELECT 1
		FROM %s.tables
		WHERE table_schema = current_schema()
		AND table_name = $1)
	`, constants.SchemaInformation)
	var exists bool
	err := m.db.QueryRowContext(ctx, query, tableName).Scan(&exists)
	return exists, err
}

// GetMigrations returns all migrations in dependency order.
func GetMigrations() []Migration {
	return []Migration{
		createUsersTable(),
		createSessionsTable(),
		createPredictionsTable(),
		createPredictionResultsTable(),
	}
}
