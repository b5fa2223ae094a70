// Package config loads the HeartRisk API configuration from a YAML file,
// overlays environment variables, fills defaults and validates the result.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App          AppSettings       `yaml:"app"`
	Database     DatabaseSettings  `yaml:"database"`
	Server       ServerSettings    `yaml:"server"`
	JWT          JWTSettings       `yaml:"jwt"`
	Logging      LoggingSettings   `yaml:"logging"`
	CORS         CORSSettings      `yaml:"cors"`
	PasswordHash HashSettings      `yaml:"password_hash"`
	Model        ModelSettings     `yaml:"model"`
	RateLimit    RateLimitSettings `yaml:"rate_limit"`
	Admin        AdminSeedSettings `yaml:"admin"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains database connection settings
type DatabaseSettings struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// JWTSettings contains JWT authentication settings
type JWTSettings struct {
	Secret        string        `yaml:"secret" env:"JWT_SECRET"`
	Expiry        time.Duration `yaml:"expiry" env:"JWT_EXPIRY"`
	RefreshExpiry time.Duration `yaml:"refresh_expiry" env:"JWT_REFRESH_EXPIRY"`
	Issuer        string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// HashSettings contains password hashing settings
type HashSettings struct {
	Memory      uint32 `yaml:"memory" env:"HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH"`
}

// ModelSettings points at the serialized scaler and classifier bundle.
type ModelSettings struct {
	ArtifactPath string `yaml:"artifact_path" env:"MODEL_ARTIFACT_PATH"`
}

// RateLimitSettings configures the per-client token buckets.
type RateLimitSettings struct {
	AuthPerSecond    float64 `yaml:"auth_per_second" env:"RATE_LIMIT_AUTH_RPS"`
	AuthBurst        int     `yaml:"auth_burst" env:"RATE_LIMIT_AUTH_BURST"`
	PredictPerSecond float64 `yaml:"predict_per_second" env:"RATE_LIMIT_PREDICT_RPS"`
	PredictBurst     int     `yaml:"predict_burst" env:"RATE_LIMIT_PREDICT_BURST"`
}

// AdminSeedSettings holds the administrator account seeded on first start.
type AdminSeedSettings struct {
	Username string `yaml:"username" env:"ADMIN_USERNAME"`
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
	FullName string `yaml:"full_name" env:"ADMIN_FULL_NAME"`
}

// ConnectionString returns a key/value PostgreSQL DSN understood by both lib/pq and pgx.
func (dbs *DatabaseSettings) ConnectionString() string {
	parts := []string{
		fmt.Sprintf("host=%s", dbs.Host),
		fmt.Sprintf("port=%d", dbs.Port),
		fmt.Sprintf("user=%s", quoteDSNValue(dbs.User)),
		fmt.Sprintf("dbname=%s", quoteDSNValue(dbs.Name)),
		fmt.Sprintf("sslmode=%s", dbs.SSLMode),
		fmt.Sprintf("connect_timeout=%d", constants.PostgresConnectTimeout),
	}
	if dbs.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", quoteDSNValue(dbs.Password)))
	}
	return strings.Join(parts, " ")
}

// URL returns the DSN in postgres:// URL form.
func (dbs *DatabaseSettings) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbs.User, dbs.Password),
		Host:     fmt.Sprintf("%s:%d", dbs.Host, dbs.Port),
		Path:     "/" + dbs.Name,
		RawQuery: "sslmode=" + url.QueryEscape(dbs.SSLMode),
	}
	return u.String()
}

// quoteDSNValue single-quotes values containing spaces or quotes.
func quoteDSNValue(v string) string {
	if v == "" || strings.ContainsAny(v, ` '\`) {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `'`, `\'`)
		return "'" + v + "'"
	}
	return v
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

var (
	// cfg holds the last loaded configuration
	cfg *AppConfig
)

// Load loads the configuration from a config file and environment variables.
// A missing file is not an error; defaults and the environment still apply.
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = config

	logConfig(config)

	return config, nil
}

// Get returns the current application configuration
func Get() *AppConfig {
	if cfg == nil {
		log.Fatal().Msg("configuration not loaded")
	}
	return cfg
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = constants.DefaultAppName
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Host == "" {
		config.Server.Host = constants.DefaultServerHost
	}
	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	if config.Database.Driver == "" {
		config.Database.Driver = constants.DriverPostgres
	}
	if config.Database.Host == "" {
		config.Database.Host = constants.DefaultDBHost
	}
	if config.Database.Port == 0 {
		config.Database.Port = constants.DefaultDBPort
	}
	if config.Database.Name == "" {
		config.Database.Name = "heartrisk"
	}
	if config.Database.User == "" {
		config.Database.User = "postgres"
	}
	if config.Database.SSLMode == "" {
		config.Database.SSLMode = constants.PostgresSSLDisable
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	if config.JWT.Expiry == 0 {
		config.JWT.Expiry = constants.DefaultJWTExpiry
	}
	if config.JWT.RefreshExpiry == 0 {
		config.JWT.RefreshExpiry = constants.DefaultJWTRefreshExpiry
	}
	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"http://localhost:5173", "https://localhost:5173"}
	}

	// Development hashing is cheaper so local restarts stay fast.
	if config.PasswordHash.Memory == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Memory = constants.DefaultPasswordHashMemory
		} else {
			config.PasswordHash.Memory = constants.DevPasswordHashMemory
		}
	}
	if config.PasswordHash.Iterations == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Iterations = constants.DefaultPasswordHashIterations
		} else {
			config.PasswordHash.Iterations = constants.DevPasswordHashIterations
		}
	}
	if config.PasswordHash.Parallelism == 0 {
		config.PasswordHash.Parallelism = constants.DefaultPasswordHashParallelism
	}
	if config.PasswordHash.SaltLength == 0 {
		config.PasswordHash.SaltLength = constants.DefaultPasswordHashSaltLength
	}
	if config.PasswordHash.KeyLength == 0 {
		config.PasswordHash.KeyLength = constants.DefaultPasswordHashKeyLength
	}

	if config.RateLimit.AuthPerSecond == 0 {
		config.RateLimit.AuthPerSecond = constants.DefaultAuthRatePerSecond
	}
	if config.RateLimit.AuthBurst == 0 {
		config.RateLimit.AuthBurst = constants.DefaultAuthRateBurst
	}
	if config.RateLimit.PredictPerSecond == 0 {
		config.RateLimit.PredictPerSecond = constants.DefaultPredictRatePerSecond
	}
	if config.RateLimit.PredictBurst == 0 {
		config.RateLimit.PredictBurst = constants.DefaultPredictRateBurst
	}

	if config.Admin.Username == "" {
		config.Admin.Username = constants.DefaultAdminUsername
	}
	if config.Admin.Email == "" {
		config.Admin.Email = constants.DefaultAdminEmail
	}
	if config.Admin.Password == "" {
		config.Admin.Password = constants.DefaultAdminPassword
	}
	if config.Admin.FullName == "" {
		config.Admin.FullName = constants.DefaultAdminFullName
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().
			Str("environment", config.App.Environment).
			Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	if config.App.IsProduction() && (config.JWT.Secret == "" || config.JWT.Secret == "changeme") {
		return fmt.Errorf("JWT secret must be set in production")
	}

	if config.App.IsProduction() && config.Admin.Password == constants.DefaultAdminPassword {
		log.Warn().Msg("Seed administrator uses the default password; set ADMIN_PASSWORD")
	}

	switch config.Database.Driver {
	case constants.DriverPostgres, constants.DriverPgx:
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.Database.MinConns > config.Database.MaxConns {
		return fmt.Errorf("database min_conns (%d) exceeds max_conns (%d)",
			config.Database.MinConns, config.Database.MaxConns)
	}

	if len(config.Admin.Password) < constants.MinPasswordLength {
		return fmt.Errorf("admin password must be at least %d characters", constants.MinPasswordLength)
	}

	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	// There is no bundled model; serving needs an exported artifact.
	if config.Model.ArtifactPath == "" {
		return fmt.Errorf("model.artifact_path must be set (MODEL_ARTIFACT_PATH)")
	}

	if config.RateLimit.AuthPerSecond < 0 || config.RateLimit.PredictPerSecond < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	logCfg := *config

	if logCfg.Database.Password != "" {
		logCfg.Database.Password = constants.LogRedactedValue
	}
	if logCfg.JWT.Secret != "" {
		logCfg.JWT.Secret = constants.LogRedactedValue
	}

	log.Info().
		Str("environment", logCfg.App.Environment).
		Str("version", logCfg.App.Version).
		Str("server", logCfg.Server.ServerAddress()).
		Str("db_driver", logCfg.Database.Driver).
		Str("db_host", logCfg.Database.Host).
		Int("db_port", logCfg.Database.Port).
		Str("db_name", logCfg.Database.Name).
		Str("model_artifact", logCfg.Model.ArtifactPath).
		Str("log_level", logCfg.Logging.Level).
		Msg("Configuration loaded")
}
