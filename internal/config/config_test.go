package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		JWTTTLHours:              168,
		DBPassword:               "secure-password",
		DBDriver:                 "postgres",
		Port:                     "8080",
		UploadMaxMBFree:          5,
		UploadMaxMBPremium:       50,
		DBConnMaxLifetimeMinutes: 1,
		StorageDriver:            "local",
		RedisURL:                 "redis://localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.DBSSLMode = "require"
	c.JWTSecret = defaultJWTSecret
	assert.ErrorContains(t, c.Validate(), "JWT_SECRET")

	c.JWTSecret = "short"
	assert.ErrorContains(t, c.Validate(), "32 characters")

	c.JWTSecret = "secure-secret-at-least-32-chars-long"
	c.DBPassword = "password"
	assert.ErrorContains(t, c.Validate(), "DB_PASSWORD")
}

func TestConfig_ValidateDrivers(t *testing.T) {
	c := validConfig()
	c.StorageDriver = "s3"
	assert.ErrorContains(t, c.Validate(), "S3_BUCKET")

	c.S3Bucket = "styles"
	assert.NoError(t, c.Validate())

	c.StorageDriver = "ftp"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())
}

func TestConfig_UploadLimitBytes(t *testing.T) {
	c := validConfig()
	assert.Equal(t, int64(5*1024*1024), c.UploadLimitBytes("free"))
	assert.Equal(t, int64(50*1024*1024), c.UploadLimitBytes("premium"))
	assert.Equal(t, int64(5*1024*1024), c.UploadLimitBytes(""))
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "gemini-2.5-flash", c.GeminiModel)
	assert.Equal(t, 5, c.UploadMaxMBFree)
	assert.Equal(t, 50, c.UploadMaxMBPremium)
}
