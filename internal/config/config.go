// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Media drivers.
const (
	MediaCloudinary = "cloudinary"
	MediaLocal      = "local"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBPort        string `mapstructure:"DB_PORT"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBName        string `mapstructure:"DB_NAME"`
	DBSSLMode     string `mapstructure:"DB_SSLMODE"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
	RedisURL      string `mapstructure:"REDIS_URL"`
	// CategoryCacheTTL enables Redis caching of category reads when positive.
	CategoryCacheTTL time.Duration `mapstructure:"CATEGORY_CACHE_TTL"`

	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthHMACSecret string `mapstructure:"AUTH_HMAC_SECRET"`

	MediaDriver      string `mapstructure:"MEDIA_DRIVER"`
	CloudinaryURL    string `mapstructure:"CLOUDINARY_URL"`
	MediaFolder      string `mapstructure:"MEDIA_FOLDER"`
	MediaDir         string `mapstructure:"MEDIA_DIR"`
	MediaBaseURL     string `mapstructure:"MEDIA_BASE_URL"`
	MediaMaxUploadMB int    `mapstructure:"MEDIA_MAX_UPLOAD_MB"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base file is optional; environment variables may carry everything.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8375")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("FEATURE_FLAGS", "")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "inkwell")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "inkwell.db")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "inkwell")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("CATEGORY_CACHE_TTL", "0s")
	v.SetDefault("AUTH_JWKS_URL", "")
	v.SetDefault("AUTH_ISSUER", "")
	v.SetDefault("AUTH_AUDIENCE", "")
	v.SetDefault("AUTH_HMAC_SECRET", "")
	v.SetDefault("MEDIA_DRIVER", MediaLocal)
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("MEDIA_FOLDER", "inkwell")
	v.SetDefault("MEDIA_DIR", "/tmp/inkwell/media")
	v.SetDefault("MEDIA_BASE_URL", "http://localhost:8375/media")
	v.SetDefault("MEDIA_MAX_UPLOAD_MB", 10)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// IsProduction reports whether the configuration targets production.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch strings.ToLower(c.StoreDriver) {
	case DriverPostgres, DriverSQLite:
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER is mongo")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	switch strings.ToLower(c.MediaDriver) {
	case MediaLocal:
		if c.MediaDir == "" {
			return errors.New("MEDIA_DIR is required when MEDIA_DRIVER is local")
		}
	case MediaCloudinary:
		if c.CloudinaryURL == "" {
			return errors.New("CLOUDINARY_URL is required when MEDIA_DRIVER is cloudinary")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_DRIVER %q", c.MediaDriver)
	}

	if c.AuthJWKSURL == "" && c.AuthHMACSecret == "" {
		return errors.New("one of AUTH_JWKS_URL or AUTH_HMAC_SECRET is required")
	}

	if c.IsProduction() {
		if c.AuthJWKSURL == "" {
			return errors.New("AUTH_JWKS_URL is required in production")
		}
		if c.AuthHMACSecret != "" {
			return errors.New("AUTH_HMAC_SECRET must not be set in production")
		}
		if c.AuthIssuer == "" || c.AuthAudience == "" {
			return errors.New("AUTH_ISSUER and AUTH_AUDIENCE are required in production")
		}
		if c.StoreDriver == DriverPostgres && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.StoreDriver == DriverSQLite {
			return errors.New("STORE_DRIVER sqlite is not supported in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if c.AuthHMACSecret != "" && len(c.AuthHMACSecret) < 32 {
		log.Println("WARNING: AUTH_HMAC_SECRET is shorter than 32 characters.")
	}

	return nil
}
