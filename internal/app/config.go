package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/courseguide-backend/internal/data/db"
	"github.com/yungbote/courseguide-backend/internal/observability"
	"github.com/yungbote/courseguide-backend/internal/platform/envutil"
	"github.com/yungbote/courseguide-backend/internal/platform/logger"
	"github.com/yungbote/courseguide-backend/internal/platform/openrouter"
	"github.com/yungbote/courseguide-backend/internal/realtime/bus"
)

const defaultPort = "8080"

type Config struct {
	Port    string
	LogMode string

	LogRedact bool
	// LogSalt keys the user id hash in logs.
	LogSalt   string

	Postgres   db.PostgresConfig
	OpenRouter openrouter.Config
	Redis      bus.RedisConfig
	Otel       observability.OtelConfig

	JWTSecret      string
	CORSOrigins    []string
	MetricsEnabled bool
	PromptPath     string
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = defaultPort
	}
	return ":" + port
}

// loadDotEnv reads an optional .env into the process environment. Values
// already set are left alone and a missing file is not an error.
func loadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:      envutil.String("PORT", defaultPort),
		LogMode:   envutil.String("LOG_MODE", "development"),
		LogRedact: envutil.Bool("LOG_REDACT", true),
		LogSalt:   envutil.String("LOG_REDACT_SALT", ""),
		Postgres: db.PostgresConfig{
			DSN:      envutil.String("POSTGRES_DSN", ""),
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "courseguide"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		OpenRouter: openrouter.Config{
			BaseURL: envutil.String("OPENROUTER_BASE_URL", openrouter.DefaultBaseURL),
			APIKey:  envutil.String("OPENROUTER_API_KEY", ""),
			Model:   envutil.String("OPENROUTER_MODEL", openrouter.DefaultModel),
			Timeout: envutil.Seconds("OPENROUTER_TIMEOUT_SECONDS", 0),
			Referer: envutil.String("OPENROUTER_REFERER", ""),
			Title:   envutil.String("OPENROUTER_TITLE", ""),
		},
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", bus.DefaultChannel),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "courseguide-api"),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1),
		},
		JWTSecret:      envutil.String("AUTH_JWT_SECRET", ""),
		CORSOrigins:    envutil.List("CORS_ALLOW_ORIGINS", nil),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true),
		PromptPath:     envutil.String("COURSE_GUIDE_PROMPT_YAML", ""),
	}

	log.Info("config loaded",
		"port", cfg.Port,
		"openrouter_model", cfg.OpenRouter.Model,
		"openrouter_timeout", cfg.OpenRouter.Timeout.String(),
		"redis_enabled", cfg.Redis.Addr != "",
		"auth_enabled", cfg.JWTSecret != "",
		"metrics_enabled", cfg.MetricsEnabled,
		"otel_enabled", cfg.Otel.Enabled,
	)
	return cfg
}

// Validate reports the settings the server cannot boot without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OpenRouter.APIKey) == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if c.OpenRouter.Timeout < 0 || c.OpenRouter.Timeout > 10*time.Minute {
		return fmt.Errorf("OPENROUTER_TIMEOUT_SECONDS out of range: %s", c.OpenRouter.Timeout)
	}
	return nil
}
