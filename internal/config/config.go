package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventSubjectPrefix     string
	JWTSecret              string
	ExecutionBackendURL    string
	RunTimeout             time.Duration
	GradedRunTimeout       time.Duration
	ExecutionMaxRetries    int
	ExecutionBackoffBase   time.Duration
	ReportCacheTTL         time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ACADFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "AcadFlow API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.subject_prefix", "acadflow")
	v.SetDefault("execution.run_timeout_ms", 10000)
	v.SetDefault("execution.graded_timeout_ms", 20000)
	v.SetDefault("execution.max_retries", 2)
	v.SetDefault("execution.backoff_base_ms", 500)
	v.SetDefault("report.cache_ttl", "5m")
	v.SetDefault("cloudinary.folder", "acadflow/attachments")

	ttlString := v.GetString("report.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid report cache ttl: %w", err)
	}

	runTimeoutMs := v.GetInt("execution.run_timeout_ms")
	if runTimeoutMs <= 0 {
		runTimeoutMs = 10000
	}

	gradedTimeoutMs := v.GetInt("execution.graded_timeout_ms")
	if gradedTimeoutMs <= 0 {
		gradedTimeoutMs = 20000
	}

	backoffBaseMs := v.GetInt("execution.backoff_base_ms")
	if backoffBaseMs <= 0 {
		backoffBaseMs = 500
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectPrefix:     v.GetString("events.subject_prefix"),
		JWTSecret:              v.GetString("jwt.secret"),
		ExecutionBackendURL:    v.GetString("execution.backend_url"),
		RunTimeout:             time.Duration(runTimeoutMs) * time.Millisecond,
		GradedRunTimeout:       time.Duration(gradedTimeoutMs) * time.Millisecond,
		ExecutionMaxRetries:    v.GetInt("execution.max_retries"),
		ExecutionBackoffBase:   time.Duration(backoffBaseMs) * time.Millisecond,
		ReportCacheTTL:         ttl,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ExecutionBackendURL == "" {
		return Config{}, fmt.Errorf("execution backend url must be provided")
	}

	if cfg.ExecutionMaxRetries < 0 {
		cfg.ExecutionMaxRetries = 0
	}

	return cfg, nil
}
