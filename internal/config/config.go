package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/spec-kit/content-gateway/pkg/util"
)

// Config aggregates runtime configuration for the gateway binaries.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Signing  SigningConfig
	Edge     EdgeConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines identity-token and password parameters. The same
// TokenSecret must be deployed to the edge binary so it can verify
// tokens without calling back to the origin.
type AuthConfig struct {
	TokenSecret     string
	TokenTTLHours   int
	BcryptCost      int
	HashPoolWorkers int
}

// SigningConfig holds the delivery-layer URL-signing material. An empty
// KeyPairID or PrivateKeyPath is tolerated at load time; grant issuance
// then fails closed with CONFIGURATION_ERROR.
type SigningConfig struct {
	Domain            string
	KeyPairID         string
	PrivateKeyPath    string
	DefaultTTLSeconds int
}

// EdgeConfig configures the edge delivery service.
type EdgeConfig struct {
	UpstreamURL     string
	CacheTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	// The token secret guards every premium decision at both binaries;
	// there is no safe default for it. Fail closed, like grant signing.
	tokenSecret := os.Getenv("AUTH_TOKEN_SECRET")
	if tokenSecret == "" {
		return nil, apperrors.NewConfigurationError("AUTH_TOKEN_SECRET must be set")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "content-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			TokenSecret:     tokenSecret,
			TokenTTLHours:   getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 24),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 10),
			HashPoolWorkers: getEnvAsInt("AUTH_HASH_POOL_WORKERS", 4),
		},
		Signing: SigningConfig{
			Domain:            getEnv("SIGNING_DOMAIN", ""),
			KeyPairID:         os.Getenv("SIGNING_KEY_PAIR_ID"),
			PrivateKeyPath:    os.Getenv("SIGNING_PRIVATE_KEY_PATH"),
			DefaultTTLSeconds: getEnvAsInt("SIGNING_DEFAULT_TTL_SECONDS", 900),
		},
		Edge: EdgeConfig{
			UpstreamURL:     getEnv("EDGE_UPSTREAM_URL", "http://127.0.0.1:9000"),
			CacheTTLSeconds: getEnvAsInt("EDGE_CACHE_TTL_SECONDS", 300),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the identity-token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// DefaultTTL returns the default grant lifetime.
func (s SigningConfig) DefaultTTL() time.Duration {
	if s.DefaultTTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.DefaultTTLSeconds) * time.Second
}

// CacheTTL returns the edge cache entry lifetime.
func (e EdgeConfig) CacheTTL() time.Duration {
	if e.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(e.CacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
