package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:           "development",
		Port:          "8000",
		JWTSecret:     "secure-secret-at-least-32-chars-long",
		DBPassword:    "secure-password",
		DBSSLMode:     "require",
		StorageDriver: "local",
		MediaRoot:     "./media",
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Development defaults", func(*Config) {}, false},
		{"Production with SSL", func(c *Config) { c.Env = "production" }, false},
		{"Production with disable SSL mode", func(c *Config) { c.Env = "production"; c.DBSSLMode = "disable" }, true},
		{"Prod with default secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = defaultJWTSecret }, true},
		{"Production with weak DB password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Unknown storage driver", func(c *Config) { c.StorageDriver = "ftp" }, true},
		{"S3 without bucket", func(c *Config) { c.StorageDriver = "s3"; c.S3Region = "eu-west-1" }, true},
		{"S3 complete", func(c *Config) { c.StorageDriver = "s3"; c.S3Bucket = "media"; c.S3Region = "eu-west-1" }, false},
		{"Negative page size", func(c *Config) { c.PageSize = -1 }, true},
		{"Unknown schema mode", func(c *Config) { c.DBSchemaMode = "magic" }, true},
		{"SQL schema mode", func(c *Config) { c.DBSchemaMode = "sql" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("STORAGE_DRIVER")
	defer os.Unsetenv("DB_SCHEMA_MODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("STORAGE_DRIVER", " Local ")
	os.Setenv("DB_SCHEMA_MODE", " SQL ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "local", c.StorageDriver)
	assert.Equal(t, "sql", c.DBSchemaMode)
	assert.False(t, c.DBAutoMigrateAllowDestructive)
	assert.Equal(t, 6, c.PageSize)
	assert.False(t, c.IsProduction())
}
