// Package scripts provides utility scripts for database and system management.
//
// Seeds populate the data the API needs before the first request, such as
// the initial administrator account. Executed seeds are recorded in the
// seeds table. One-shot seeds never run twice; repeatable seeds are checked
// on every start and are expected to be idempotent.
package scripts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/auth"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
)

// Seed names recorded in the seeds table.
const (
	SeedAdminUser = "admin_user"
)

// Seeder handles database seeding.
type Seeder struct {
	db        *database.Pool
	admin     config.AdminSeedSettings
	passwords *auth.PasswordConfig
}

type seed struct {
	Name       string
	Repeatable bool
	SeedFunc   func(ctx context.Context, tx *sql.Tx) (bool, error)
}

// NewSeeder creates a new seeder.
//
// Parameters:
//   - db: A database connection pool to use for seeding
//   - admin: The administrator account created when none exists
//   - passwords: The Argon2id parameters for the administrator password
//
// Returns:
//   - *Seeder: A configured seeder
func NewSeeder(db *database.Pool, admin config.AdminSeedSettings, passwords *auth.PasswordConfig) *Seeder {
	return &Seeder{
		db:        db,
		admin:     admin,
		passwords: passwords,
	}
}

// SeedDatabase creates the seeds table if needed and runs every pending seed.
func (s *Seeder) SeedDatabase(ctx context.Context) error {
	log.Info().Msg("Seeding database")
	startTime := time.Now()

	if err := s.createSeedsTable(ctx); err != nil {
		return fmt.Errorf("failed to create seeds table: %w", err)
	}

	executedSeeds, err := s.getExecutedSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed seeds: %w", err)
	}

	seeds := []seed{
		{Name: SeedAdminUser, Repeatable: true, SeedFunc: s.seedAdmin},
	}

	for _, sd := range seeds {
		if executedSeeds[sd.Name] && !sd.Repeatable {
			log.Debug().Str("seed", sd.Name).Msg("Seed already executed")
			continue
		}

		log.Info().Str("seed", sd.Name).Msg("Running seed")
		if err := s.runSeed(ctx, sd); err != nil {
			return err
		}
	}

	log.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Database seeding completed")

	return nil
}

func (s *Seeder) createSeedsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS seeds (
			name VARCHAR(255) PRIMARY KEY,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// getExecutedSeeds returns the names of recorded seeds.
func (s *Seeder) getExecutedSeeds(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM seeds`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	seeds := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		seeds[name] = true
	}

	return seeds, rows.Err()
}

// runSeed runs a seed inside a transaction and records it when it changed
// something.
func (s *Seeder) runSeed(ctx context.Context, sd seed) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		applied, err := sd.SeedFunc(ctx, tx)
		if err != nil {
			return fmt.Errorf("seed %s failed: %w", sd.Name, err)
		}
		if !applied {
			return nil
		}

		query := `
			INSERT INTO seeds (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET executed_at = CURRENT_TIMESTAMP
		`
		if _, err := tx.ExecContext(ctx, query, sd.Name); err != nil {
			return fmt.Errorf("failed to record seed: %w", err)
		}

		return nil
	})
}

// seedAdmin creates the configured administrator when no admin account
// exists. It reports whether an account was created.
func (s *Seeder) seedAdmin(ctx context.Context, tx *sql.Tx) (bool, error) {
	var adminCount int
	countQuery := `SELECT COUNT(*) FROM users WHERE role = $1`
	if err := tx.QueryRowContext(ctx, countQuery, constants.RoleAdmin).Scan(&adminCount); err != nil {
		return false, fmt.Errorf("failed to count administrators: %w", err)
	}

	if adminCount > 0 {
		log.Debug().Int("admins", adminCount).Msg("Administrator already present")
		return false, nil
	}

	hash, salt, err := auth.HashPassword(s.admin.Password, s.passwords)
	if err != nil {
		return false, fmt.Errorf("failed to hash administrator password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, salt, full_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	now := time.Now()
	if _, err := tx.ExecContext(ctx, query,
		s.admin.Username,
		s.admin.Email,
		hash,
		salt,
		s.admin.FullName,
		constants.RoleAdmin,
		now,
	); err != nil {
		return false, fmt.Errorf("failed to insert administrator: %w", err)
	}

	log.Info().
		Str(constants.UsernameContextKey, s.admin.Username).
		Msg("Default administrator created")

	return true, nil
}
