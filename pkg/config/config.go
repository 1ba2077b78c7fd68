// Package config loads runtime settings from the environment (and a local .env file).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bukukas/pkg/password"

	"github.com/joho/godotenv"
)

// DevSessionSecret is used when SESSION_SECRET is unset. Never use it in production.
const DevSessionSecret = "dev-insecure-secret-change"

// DefaultSeedAdminPassword seeds the admin account when SEED_ADMIN_PASSWORD is unset.
const DefaultSeedAdminPassword = "admin123"

// Member delete policies.
const (
	DeleteNullify = "nullify"
	DeleteBlock   = "block"
	DeleteCascade = "cascade"
)

// Attachment reject policies.
const (
	RejectDrop  = "drop"
	RejectError = "error"
)

type Config struct {
	Port    string
	GinMode string

	DB DBConfig

	SessionSecret string
	SessionTTL    time.Duration
	SessionStore  string
	CookieSecure  bool
	Redis         RedisConfig

	UploadDir      string
	ReportsDir     string
	MaxUploadBytes int64
	MaxImageBytes  int64

	MemberDeletePolicy     string
	AttachmentRejectPolicy string
	MembersRequireAdmin    bool

	SeedAdminPassword string

	LogLevel  string
	LogFormat string
}

type DBConfig struct {
	Driver string
	DSN    string

	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads ./.env (without overriding variables already set) and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", "error", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	cfg := &Config{
		Port:    getEnv("PORT", "5000"),
		GinMode: getEnv("GIN_MODE", "release"),
		DB: DBConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "bukukas"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		},
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", "memory")),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		UploadDir:              getEnv("UPLOAD_DIR", "static/uploads"),
		ReportsDir:             getEnv("REPORTS_DIR", "laporan"),
		MaxUploadBytes:         int64(getEnvInt("MAX_UPLOAD_BYTES", 5*1024*1024)),
		MaxImageBytes:          int64(getEnvInt("MAX_IMAGE_BYTES", 1_000_000)),
		MemberDeletePolicy:     strings.ToLower(getEnv("MEMBER_DELETE_POLICY", DeleteNullify)),
		AttachmentRejectPolicy: strings.ToLower(getEnv("ATTACHMENT_REJECT_POLICY", RejectDrop)),
		MembersRequireAdmin:    getEnvBool("MEMBERS_REQUIRE_ADMIN", false),
		SeedAdminPassword:      getEnv("SEED_ADMIN_PASSWORD", DefaultSeedAdminPassword),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "text"),
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = DevSessionSecret
	}
	return cfg
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errors = append(errors, fmt.Sprintf("invalid GIN_MODE '%s': must be debug, release or test", c.GinMode))
	}

	switch c.DB.Driver {
	case "postgres":
		if c.DB.DSN == "" && c.DB.Host == "" {
			errors = append(errors, "database: set DB_DSN or DB_HOST")
		}
	case "sqlite":
		if c.DB.DSN == "" {
			errors = append(errors, "database: DB_DSN must be a file path when DB_DRIVER=sqlite")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid DB_DRIVER '%s': must be postgres or sqlite", c.DB.Driver))
	}
	if c.DB.QueryTimeout <= 0 {
		errors = append(errors, "DB_QUERY_TIMEOUT must be positive")
	}

	if len(c.SessionSecret) < 16 {
		errors = append(errors, "SESSION_SECRET must be at least 16 characters")
	}
	if c.SessionTTL <= 0 {
		errors = append(errors, "SESSION_TTL must be positive")
	}
	switch c.SessionStore {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errors = append(errors, "REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid SESSION_STORE '%s': must be memory or redis", c.SessionStore))
	}

	if c.UploadDir == "" {
		errors = append(errors, "UPLOAD_DIR must not be empty")
	}
	if c.ReportsDir == "" {
		errors = append(errors, "REPORTS_DIR must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		errors = append(errors, "MAX_UPLOAD_BYTES must be positive")
	}

	if err := password.Check(c.SeedAdminPassword); err != nil {
		errors = append(errors, "SEED_ADMIN_PASSWORD: "+err.Error())
	}

	switch c.MemberDeletePolicy {
	case DeleteNullify, DeleteBlock, DeleteCascade:
	default:
		errors = append(errors, fmt.Sprintf("invalid MEMBER_DELETE_POLICY '%s': must be nullify, block or cascade", c.MemberDeletePolicy))
	}
	switch c.AttachmentRejectPolicy {
	case RejectDrop, RejectError:
	default:
		errors = append(errors, fmt.Sprintf("invalid ATTACHMENT_REJECT_POLICY '%s': must be drop or error", c.AttachmentRejectPolicy))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// PostgresDSN returns DB_DSN or a keyword DSN built from the discrete DB_* variables.
func (d DBConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Redacted returns the DSN with its password masked, for logs.
func (d DBConfig) Redacted() string {
	if d.Driver == "sqlite" {
		return d.DSN
	}
	if d.DSN != "" {
		if u, err := url.Parse(d.DSN); err == nil && u.User != nil {
			if _, has := u.User.Password(); has {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
			}
			return u.String()
		}
		return "(dsn)"
	}
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s", d.Host, d.Port, d.User, d.Name)
}

// UsingDevSecret reports whether the insecure development secret is in effect.
func (c *Config) UsingDevSecret() bool { return c.SessionSecret == DevSessionSecret }

// UsingDefaultAdminPassword reports whether the admin account would be seeded with the well-known default.
func (c *Config) UsingDefaultAdminPassword() bool {
	return c.SeedAdminPassword == DefaultSeedAdminPassword
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
	}
	return defaultVal
}
