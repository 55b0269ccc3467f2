package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
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

// RedisConfig holds Redis connection values and the identity cache TTL.
type RedisConfig struct {
	Addr                    string
	Password                string
	DB                      int
	IdentityCacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLSeconds int
	BcryptCost            int
	Resource              string
	LoginRatePerMinute    int
	LoginBurst            int
	PasswordScheme        string
}

const devJWTSecret = "dev-secret"

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

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-server"),
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
			Addr:                    getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:                os.Getenv("REDIS_PASSWORD"),
			DB:                      redisDB,
			IdentityCacheTTLSeconds: getEnvAsInt("IDENTITY_CACHE_TTL_SECONDS", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", devJWTSecret),
			AccessTokenTTLSeconds: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_SECONDS", 3600),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			Resource:              getEnv("AUTH_RESOURCE", "auth-server"),
			LoginRatePerMinute:    getEnvAsInt("AUTH_LOGIN_RATE_PER_MINUTE", 30),
			LoginBurst:            getEnvAsInt("AUTH_LOGIN_BURST", 10),
			PasswordScheme:        getEnv("AUTH_PASSWORD_SCHEME", "bcrypt"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.AccessTokenTTLSeconds <= 0 {
		return fmt.Errorf("invalid AUTH_ACCESS_TOKEN_TTL_SECONDS: %d", c.Auth.AccessTokenTTLSeconds)
	}
	if c.Auth.PasswordScheme != "bcrypt" && c.Auth.PasswordScheme != "plain" {
		return fmt.Errorf("invalid AUTH_PASSWORD_SCHEME: %q", c.Auth.PasswordScheme)
	}
	if c.Auth.JWTSecret == devJWTSecret && c.App.Env != "development" && c.App.Env != "test" {
		return errors.New("AUTH_JWT_SECRET must be set outside development")
	}
	return nil
}

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLSeconds) * time.Second
}

// SigningKey returns the shared HMAC secret as bytes.
func (a AuthConfig) SigningKey() []byte {
	return []byte(a.JWTSecret)
}

// IdentityCacheTTL returns how long identity snapshots stay cached. Zero disables the cache.
func (r RedisConfig) IdentityCacheTTL() time.Duration {
	if r.IdentityCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.IdentityCacheTTLSeconds) * time.Second
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
