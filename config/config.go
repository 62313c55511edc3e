package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Intake   IntakeConfig
	AI       AIConfig
	AWS      AWSConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/curricula?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. An empty Addr disables the cache and job queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// AuthConfig holds admin session settings.
type AuthConfig struct {
	Secret         string
	AppURL         string
	SessionTTL     time.Duration
	SessionRefresh time.Duration
	CookieCacheTTL time.Duration
	SecureCookies  bool
}

// IntakeConfig holds the shared secret agents use on POST /api/submissions.
type IntakeConfig struct {
	APIToken string
}

// AIConfig selects the completion provider used by the admin discovery and extraction actions.
type AIConfig struct {
	Provider          string // "openai" (OpenAI-compatible endpoints) or "gemini"
	PerplexityAPIKey  string
	PerplexityBaseURL string
	DiscoverModel     string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	ExtractModel      string
	GeminiAPIKey      string
	GeminiModel       string
	ReaderBaseURL     string // Jina Reader
	Timeout           time.Duration
}

// AWSConfig holds AWS credentials and the bucket used for mirrored resource images.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImagesBucket    string
}

// AdminConfig holds the bootstrap admin account read by `curricula create-admin`.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "120"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	appURL := getEnv("APP_URL", "http://localhost:3000")
	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", appURL),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "curricula"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			CacheTTL: time.Duration(getEnvInt("CACHE_TTL_SEC", 300)) * time.Second,
		},
		Auth: AuthConfig{
			Secret:         getEnv("AUTH_SECRET", ""),
			AppURL:         appURL,
			SessionTTL:     time.Duration(getEnvInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,
			SessionRefresh: time.Duration(getEnvInt("SESSION_REFRESH_HOURS", 24)) * time.Hour,
			CookieCacheTTL: time.Duration(getEnvInt("SESSION_COOKIE_CACHE_SEC", 300)) * time.Second,
			SecureCookies:  strings.HasPrefix(appURL, "https://"),
		},
		Intake: IntakeConfig{
			APIToken: getEnv("SUBMISSION_API_TOKEN", ""),
		},
		AI: AIConfig{
			Provider:          getEnv("AI_PROVIDER", "openai"),
			PerplexityAPIKey:  getEnv("PERPLEXITY_API_KEY", ""),
			PerplexityBaseURL: getEnv("PERPLEXITY_BASE_URL", "https://api.perplexity.ai"),
			DiscoverModel:     getEnv("AI_DISCOVER_MODEL", "sonar"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ExtractModel:      getEnv("AI_EXTRACT_MODEL", "gpt-4o-mini"),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			ReaderBaseURL:     getEnv("READER_BASE_URL", "https://r.jina.ai/"),
			Timeout:           time.Duration(getEnvInt("AI_TIMEOUT_SEC", 60)) * time.Second,
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ImagesBucket:    getEnv("AWS_S3_IMAGES_BUCKET", "curricula-resource-images"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Admin"),
		},
	}
	return cfg, nil
}

// Validate checks the secrets the HTTP server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.Secret) < 32 {
		errs = append(errs, errors.New("AUTH_SECRET must be at least 32 characters"))
	}
	if len(c.Intake.APIToken) < 32 {
		errs = append(errs, errors.New("SUBMISSION_API_TOKEN must be at least 32 characters"))
	}
	switch c.AI.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be openai or gemini, got %q", c.AI.Provider))
	}
	return errors.Join(errs...)
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// AllowedOrigins returns the CORS origins as a list.
func (c ServerConfig) AllowedOrigins() []string {
	return splitTrim(c.CORSAllowedOrigins, ",")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
