// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"APP_ENV"`

	DBDriver                      string `mapstructure:"DB_DRIVER"`
	DBPath                        string `mapstructure:"DB_PATH"`
	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBReadHost                    string `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string `mapstructure:"DB_READ_PORT"`
	DBReadUser                    string `mapstructure:"DB_READ_USER"`
	DBReadPassword                string `mapstructure:"DB_READ_PASSWORD"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSlowQueryMS                 int    `mapstructure:"DB_SLOW_QUERY_MS"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	GeminiAPIKey      string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string `mapstructure:"GEMINI_MODEL"`
	GeminiEndpoint    string `mapstructure:"GEMINI_ENDPOINT"`
	LLMTimeoutSeconds int    `mapstructure:"LLM_TIMEOUT_SECONDS"`

	StorageDriver      string `mapstructure:"STORAGE_DRIVER"`
	UploadDir          string `mapstructure:"UPLOAD_DIR"`
	PublicMediaURL     string `mapstructure:"PUBLIC_MEDIA_URL"`
	S3Bucket           string `mapstructure:"S3_BUCKET"`
	S3Region           string `mapstructure:"S3_REGION"`
	S3Endpoint         string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID      string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey  string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL        string `mapstructure:"S3_PUBLIC_URL"`
	UploadMaxMBFree    int    `mapstructure:"UPLOAD_MAX_MB_FREE"`
	UploadMaxMBPremium int    `mapstructure:"UPLOAD_MAX_MB_PREMIUM"`

	// SeedDemo fills an empty non-production database on startup.
	SeedDemo bool `mapstructure:"SEED_DEMO"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_TTL_HOURS", 168)

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_PATH", "srefhub.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "srefhub")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("DB_SLOW_QUERY_MS", 200)
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)

	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "")

	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("LLM_TIMEOUT_SECONDS", 10)

	viper.SetDefault("STORAGE_DRIVER", "local")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("PUBLIC_MEDIA_URL", "/media")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_ACCESS_KEY_ID", "")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_PUBLIC_URL", "")
	viper.SetDefault("UPLOAD_MAX_MB_FREE", 5)
	viper.SetDefault("UPLOAD_MAX_MB_PREMIUM", 50)

	viper.SetDefault("SEED_DEMO", false)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// UploadLimitBytes returns the per-file upload limit for the given tier name.
func (c *Config) UploadLimitBytes(tier string) int64 {
	mb := c.UploadMaxMBFree
	if tier == "premium" {
		mb = c.UploadMaxMBPremium
	}
	return int64(mb) * 1024 * 1024
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTLHours <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	if c.UploadMaxMBFree <= 0 || c.UploadMaxMBPremium <= 0 {
		return errors.New("upload limits must be positive")
	}
	if c.DBConnMaxLifetimeMinutes < 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must not be negative")
	}
	switch c.DBDriver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageDriver {
	case "", "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver != "sqlite" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must not be disabled in production")
			}
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
