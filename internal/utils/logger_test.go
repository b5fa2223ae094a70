package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/config"
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/utils"
)

// captureOutput swaps the global logger for one writing to a buffer at
// debug level and restores both afterwards.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	originalLogger := log.Logger
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = originalLogger
		zerolog.SetGlobalLevel(originalLevel)
	})

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	fn()
	return buf.String()
}

func lastEntry(t *testing.T, output string) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitLogger(t *testing.T) {
	originalLogger := log.Logger
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = originalLogger
		zerolog.SetGlobalLevel(originalLevel)
	})

	t.Run("Applies the configured level", func(t *testing.T) {
		utils.InitLogger(&config.AppConfig{
			App:     config.AppSettings{Name: "test-app", Version: "1.0.0", Environment: "testing"},
			Logging: config.LoggingSettings{Level: "warn", Format: "json"},
		})

		assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	})

	t.Run("Invalid level falls back to info", func(t *testing.T) {
		utils.InitLogger(&config.AppConfig{
			Logging: config.LoggingSettings{Level: "verbose", Format: "json"},
		})

		assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})
}

func TestRequestLogger(t *testing.T) {
	output := captureOutput(t, func() {
		logger := utils.RequestLogger("req-1", "42", "GET", "/api/predictions")
		logger.Info().Msg("handled")
	})

	entry := lastEntry(t, output)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "42", entry["user_id"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/predictions", entry["path"])
}

func TestLogHTTPRequest(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
	}{
		{"API success is info", "/api/predict", 200, "info"},
		{"Client error is warn", "/api/predict", 400, "warn"},
		{"Server error is error", "/api/predict", 500, "error"},
		{"Non API success is debug", "/version", 200, "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureOutput(t, func() {
				utils.LogHTTPRequest("req", "POST", tt.path, "127.0.0.1", "test", tt.status, 5*time.Millisecond)
			})

			entry := lastEntry(t, output)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status"])
		})
	}

	t.Run("Health checks are skipped above debug", func(t *testing.T) {
		output := captureOutput(t, func() {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			utils.LogHTTPRequest("req", "GET", "/health", "127.0.0.1", "probe", 200, time.Millisecond)
		})

		assert.Empty(t, output)
	})
}

func TestLogError(t *testing.T) {
	output := captureOutput(t, func() {
		utils.LogError(errors.New("boom"), map[string]interface{}{"operation": "save", "attempt": 2})
	})

	entry := lastEntry(t, output)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "save", entry["operation"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestLogPanic(t *testing.T) {
	output := captureOutput(t, func() {
		utils.LogPanic("kaboom", []byte("goroutine 1"))
	})

	entry := lastEntry(t, output)
	assert.Equal(t, "kaboom", entry["panic"])
	assert.Equal(t, "goroutine 1", entry["stack"])
}

func TestLogDBQuery(t *testing.T) {
	t.Run("Credential queries are redacted", func(t *testing.T) {
		output := captureOutput(t, func() {
			utils.LogDBQuery("UPDATE users SET password_hash = $1 WHERE user_id = $2", []interface{}{"hash", int64(1)}, time.Millisecond, nil)
		})

		assert.Contains(t, output, "[REDACTED]")
		assert.NotContains(t, output, `"hash"`)
	})

	t.Run("Other queries keep arguments", func(t *testing.T) {
		output := captureOutput(t, func() {
			utils.LogDBQuery("SELECT * FROM predictions WHERE user_id = $1", []interface{}{"7"}, time.Millisecond, nil)
		})

		assert.Contains(t, output, `"7"`)
	})

	t.Run("Failures log at error", func(t *testing.T) {
		output := captureOutput(t, func() {
			utils.LogDBQuery("SELECT 1", nil, time.Millisecond, errors.New("down"))
		})

		assert.Equal(t, "error", lastEntry(t, output)["level"])
	})
}

func TestLogAuth(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		output := captureOutput(t, func() {
			utils.LogAuth("login", "1", "alice", true, "")
		})

		entry := lastEntry(t, output)
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "auth", entry["category"])
		assert.NotContains(t, entry, "reason")
	})

	t.Run("Failure carries a reason", func(t *testing.T) {
		output := captureOutput(t, func() {
			utils.LogAuth("login", "", "alice", false, "invalid password")
		})

		entry := lastEntry(t, output)
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "invalid password", entry["reason"])
	})
}

func TestLogPrediction(t *testing.T) {
	output := captureOutput(t, func() {
		utils.LogPrediction("3", 11, true, map[string]string{"dt": "low", "rf": "medium"}, 2*time.Millisecond)
	})

	entry := lastEntry(t, output)
	assert.Equal(t, "prediction", entry["category"])
	assert.Equal(t, float64(11), entry["prediction_id"])
	assert.Equal(t, true, entry["saved"])
	assert.Equal(t, map[string]interface{}{"dt": "low", "rf": "medium"}, entry["risk_tiers"])
}

func TestSetLogLevel(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	require.NoError(t, utils.SetLogLevel("ERROR"))
	assert.Equal(t, "error", utils.GetLogLevel())

	assert.Error(t, utils.SetLogLevel("loud"))
	assert.Equal(t, "error", utils.GetLogLevel())
}
