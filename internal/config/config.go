package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

// ErrMissingToken is returned when a CMS token is required but not configured.
var ErrMissingToken = errors.New("missing CMS API token")

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the application configuration, populated from environment variables.
type Config struct {
	App       AppConfig
	CMS       CMSConfig
	HTTP      HTTPConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Registry  RegistryConfig
	Preview   PreviewConfig
	Backup    BackupConfig
	Sitemap   SitemapConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Environment string
	Port        string
}

type CMSConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	APIHost    string // overrides the derived host, used for local/test servers
	UseCDN     bool
	ReadToken  string
	WriteToken string
	Debug      bool // dump every CMS request at debug level
}

type HTTPConfig struct {
	AllowedOrigin string
	ImageFormat   string
	SanitizeHTML  bool
}

type CacheConfig struct {
	TTL time.Duration // zero disables query caching
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type RegistryConfig struct {
	DSN string
}

type PreviewConfig struct {
	Secret string
	TTL    time.Duration
}

type BackupConfig struct {
	Dir         string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

type SitemapConfig struct {
	BaseURL string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads the configuration. A .env file in the working directory is
// loaded first when present; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", EnvDevelopment),
			Port:        getEnv("PORT", "8080"),
		},
		CMS: CMSConfig{
			ProjectID:  os.Getenv("CMS_PROJECT_ID"),
			Dataset:    getEnv("CMS_DATASET", "production"),
			APIVersion: getEnv("CMS_API_VERSION", "2024-01-01"),
			APIHost:    os.Getenv("CMS_API_HOST"),
			UseCDN:     getEnvBool("CMS_USE_CDN", true),
			ReadToken:  os.Getenv("CMS_READ_TOKEN"),
			WriteToken: os.Getenv("CMS_WRITE_TOKEN"),
			Debug:      getEnvBool("CMS_DEBUG", false),
		},
		HTTP: HTTPConfig{
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "https://builder.io"),
			ImageFormat:   getEnv("IMAGE_FORMAT", "webp"),
			SanitizeHTML:  getEnvBool("SANITIZE_HTML", false),
		},
		Cache: CacheConfig{
			TTL: getEnvDuration("CMS_CACHE_TTL", 0),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Registry: RegistryConfig{
			DSN: os.Getenv("REGISTRY_DSN"),
		},
		Preview: PreviewConfig{
			Secret: os.Getenv("PREVIEW_SECRET"),
			TTL:    getEnvDuration("PREVIEW_TTL", time.Hour),
		},
		Backup: BackupConfig{
			Dir:         getEnv("BACKUP_DIR", "backups"),
			S3Endpoint:  os.Getenv("BACKUP_S3_ENDPOINT"),
			S3AccessKey: os.Getenv("BACKUP_S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("BACKUP_S3_SECRET_KEY"),
			S3Bucket:    getEnv("BACKUP_S3_BUCKET", "cms-backups"),
			S3UseSSL:    getEnvBool("BACKUP_S3_USE_SSL", true),
		},
		Sitemap: SitemapConfig{
			BaseURL: getEnv("SITE_BASE_URL", "http://localhost:3000"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 0),
			Burst: getEnvInt("RATE_LIMIT_BURST", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields every process needs. Token presence is checked
// separately by RequireReadToken / RequireWriteToken.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.App,
		validation.Field(&c.App.Environment, validation.Required, validation.In(EnvDevelopment, EnvProduction, "staging", "test")),
		validation.Field(&c.App.Port, validation.Required),
	); err != nil {
		return err
	}

	return validation.ValidateStruct(&c.CMS,
		validation.Field(&c.CMS.ProjectID, validation.Required.Error("CMS_PROJECT_ID must be set")),
		validation.Field(&c.CMS.Dataset, validation.Required),
		validation.Field(&c.CMS.APIVersion, validation.Required),
	)
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// RequireReadToken is fatal-worthy only in production; development tolerates
// anonymous reads of a public dataset.
func (c *Config) RequireReadToken() error {
	if c.CMS.ReadToken == "" && c.IsProduction() {
		return fmt.Errorf("%w: CMS_READ_TOKEN", ErrMissingToken)
	}
	return nil
}

// RequireWriteToken is always required: maintenance scripts cannot write anonymously.
func (c *Config) RequireWriteToken() error {
	if c.CMS.WriteToken == "" {
		return fmt.Errorf("%w: CMS_WRITE_TOKEN", ErrMissingToken)
	}
	return nil
}

// S3Enabled reports whether backups should also be uploaded to object storage.
func (b BackupConfig) S3Enabled() bool {
	return b.S3Endpoint != "" && b.S3AccessKey != "" && b.S3SecretKey != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
