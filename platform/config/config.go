// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler/worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	IsSchedulerEnabled() bool
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketPilotDocuments() string
	IsMinIOEnabled() bool
}

// DispatchConfig provides the matching/dispatch tunables. The values are
// read once at startup and treated as immutable for the process lifetime.
type DispatchConfig interface {
	GetInviteCount() int
	GetInitialRadiusKm() float64
	GetRadiusStepKm() float64
	GetMaxRadiusKm() float64
	GetOfferTTL() time.Duration
	GetMaxWaves() int
	GetActivityWindow() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	JWTAccessSecret string
	CORSAllowAll    bool
	CORSOrigins     []string
	CORSAllowCreds  bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	SchedulerEnabled bool

	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	MinIOMaxFileSize          int64
	MinioBucketPilotDocuments string

	DispatchInviteCount     int
	DispatchInitialRadiusKm float64
	DispatchRadiusStepKm    float64
	DispatchMaxRadiusKm     float64
	DispatchOfferTTL        time.Duration
	DispatchMaxWaves        int
	DispatchActivityWindow  time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool  { return c.SchedulerEnabled && c.RedisURL != "" }

func (c *Config) GetMinIOEndpoint() string             { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string            { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string            { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool                 { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64           { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketPilotDocuments() string { return c.MinioBucketPilotDocuments }
func (c *Config) IsMinIOEnabled() bool                 { return c.MinIOEndpoint != "" }

func (c *Config) GetInviteCount() int              { return c.DispatchInviteCount }
func (c *Config) GetInitialRadiusKm() float64      { return c.DispatchInitialRadiusKm }
func (c *Config) GetRadiusStepKm() float64         { return c.DispatchRadiusStepKm }
func (c *Config) GetMaxRadiusKm() float64          { return c.DispatchMaxRadiusKm }
func (c *Config) GetOfferTTL() time.Duration       { return c.DispatchOfferTTL }
func (c *Config) GetMaxWaves() int                 { return c.DispatchMaxWaves }
func (c *Config) GetActivityWindow() time.Duration { return c.DispatchActivityWindow }

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from environment variables. A .env file, when
// present, is loaded first (development convenience; real deployments set
// the environment directly).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),
		CORSAllowAll:    getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:     getEnvList("CORS_ORIGINS"),
		CORSAllowCreds:  getEnvBool("CORS_ALLOW_CREDENTIALS", true),

		RedisURL:         os.Getenv("REDIS_URL"),
		RedisTLSInsecure: getEnvBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: getEnvInt("ASYNQ_CONCURRENCY", 10),
		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),

		MinIOEndpoint:             os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:            os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:            os.Getenv("MINIO_SECRET_KEY"),
		MinIOUseSSL:               getEnvBool("MINIO_USE_SSL", false),
		MinIOMaxFileSize:          getEnvInt64("MINIO_MAX_FILE_SIZE", 50*1024*1024),
		MinioBucketPilotDocuments: getEnv("MINIO_BUCKET_PILOT_DOCUMENTS", "pilot-documents"),

		DispatchInviteCount:     getEnvInt("DISPATCH_INVITE_COUNT", 5),
		DispatchInitialRadiusKm: getEnvFloat("DISPATCH_INITIAL_RADIUS_KM", 10),
		DispatchRadiusStepKm:    getEnvFloat("DISPATCH_RADIUS_STEP_KM", 10),
		DispatchMaxRadiusKm:     getEnvFloat("DISPATCH_MAX_RADIUS_KM", 50),
		DispatchOfferTTL:        getEnvDuration("DISPATCH_OFFER_TTL", 20*time.Second),
		DispatchMaxWaves:        getEnvInt("DISPATCH_MAX_WAVES", 3),
		DispatchActivityWindow:  getEnvDuration("DISPATCH_ACTIVITY_WINDOW", 30*time.Minute),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.DispatchMaxWaves < 1 {
		return nil, fmt.Errorf("DISPATCH_MAX_WAVES must be at least 1")
	}
	if cfg.DispatchInviteCount < 1 {
		return nil, fmt.Errorf("DISPATCH_INVITE_COUNT must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
