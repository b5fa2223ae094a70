//go:build integration

package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/database"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/models"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/repository"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
	"github.com/yasinhessnawi1/HeartRisk_Backend/migrations"
)

// setupPostgres starts a throwaway PostgreSQL container with the schema applied.
func setupPostgres(t *testing.T) *database.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("heartrisk"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.Open(constants.DriverPgx, dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	require.NoError(t, migrations.NewMigrator(pool).RunMigrations(ctx))
	return pool
}

func TestPostgresRoundTrip(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	users := repository.NewUserRepository(pool)
	predictions := repository.NewPredictionRepository(pool)
	sessions := repository.NewSessionRepository(pool)

	user := newTestUser()
	require.NoError(t, users.Create(ctx, user))

	dup := newTestUser()
	dup.Email = "other@example.com"
	err := users.Create(ctx, dup)
	assert.True(t, utils.IsDuplicateError(err))

	shouted := newTestUser()
	shouted.Username = strings.ToUpper(user.Username)
	shouted.Email = "third@example.com"
	assert.True(t, utils.IsDuplicateError(users.Create(ctx, shouted)))

	found, err := users.GetByIdentifier(ctx, "JDoe@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	p := newTestPrediction()
	p.UserID = user.ID
	require.NoError(t, predictions.Create(ctx, p))

	got, err := predictions.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Input, got.Input)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "dt", got.Results[0].ModelKey)

	items, total, err := predictions.List(ctx, models.PredictionFilter{UserID: user.ID},
		utils.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)

	stats, err := predictions.Stats(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPredictions)
	assert.Equal(t, 1, stats.HighRiskPredictions)
	assert.Equal(t, 1, stats.TodayPredictions)

	session := models.NewSession(user.ID, "jwt-1", time.Hour)
	require.NoError(t, sessions.Create(ctx, session))
	valid, err := sessions.IsValidSession(ctx, "jwt-1")
	require.NoError(t, err)
	assert.True(t, valid)

	require.NoError(t, users.Delete(ctx, user.ID))

	_, err = predictions.GetByID(ctx, p.ID)
	assert.True(t, utils.IsNotFoundError(err), "predictions are removed with their owner")
	valid, err = sessions.IsValidSession(ctx, "jwt-1")
	require.NoError(t, err)
	assert.False(t, valid)
}
