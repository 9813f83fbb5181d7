// Package config handles application configuration loading from environment
// variables and an optional config file. It provides a centralized Config
// struct used across the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultDBPassword    = "changeme"
	defaultAdminPassword = "admin"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host       string
	Port       string
	Env        string // "development", "production", "testing"
	LogLevel   string // "debug", "info", "warn", "error"
	TrustProxy bool   // honor X-Forwarded-For for rate limiting

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible session store)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// Blog behaviour
	PostsPerPage   int
	LoginRateLimit int           // submissions per client and window
	LoginWindow    time.Duration // rate limit window

	// Initial admin account, created when the users table is empty.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_host", "0.0.0.0")
	v.SetDefault("app_port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "")
	v.SetDefault("trust_proxy", false)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "inkwell")
	v.SetDefault("postgres_password", defaultDBPassword)
	v.SetDefault("postgres_db", "inkwell")

	v.SetDefault("valkey_host", "localhost")
	v.SetDefault("valkey_port", "6379")
	v.SetDefault("valkey_password", "")
	v.SetDefault("valkey_db", 0)

	v.SetDefault("posts_per_page", 10)
	v.SetDefault("login_rate_limit", 10)
	v.SetDefault("login_rate_window", time.Minute)

	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_email", "admin@inkwell.local")
	v.SetDefault("admin_password", defaultAdminPassword)
}

// Load reads configuration from the environment, layered over configFile
// when one is given (any format viper understands, keys as the lowercase
// environment names). Returns an error if the result is unusable, or if
// production would run with a default password.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Host:       v.GetString("app_host"),
		Port:       v.GetString("app_port"),
		Env:        strings.ToLower(v.GetString("app_env")),
		LogLevel:   strings.ToLower(v.GetString("log_level")),
		TrustProxy: v.GetBool("trust_proxy"),

		DBHost:     v.GetString("postgres_host"),
		DBPort:     v.GetString("postgres_port"),
		DBUser:     v.GetString("postgres_user"),
		DBPassword: v.GetString("postgres_password"),
		DBName:     v.GetString("postgres_db"),

		ValkeyHost:     v.GetString("valkey_host"),
		ValkeyPort:     v.GetString("valkey_port"),
		ValkeyPassword: v.GetString("valkey_password"),
		ValkeyDB:       v.GetInt("valkey_db"),

		PostsPerPage:   v.GetInt("posts_per_page"),
		LoginRateLimit: v.GetInt("login_rate_limit"),
		LoginWindow:    v.GetDuration("login_rate_window"),

		AdminUsername: v.GetString("admin_username"),
		AdminEmail:    v.GetString("admin_email"),
		AdminPassword: v.GetString("admin_password"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.PostsPerPage < 1 {
		errs = append(errs, fmt.Errorf("POSTS_PER_PAGE must be positive, got %d", c.PostsPerPage))
	}
	if c.LoginRateLimit < 1 {
		errs = append(errs, fmt.Errorf("LOGIN_RATE_LIMIT must be positive, got %d", c.LoginRateLimit))
	}
	if c.LoginWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_WINDOW must be positive"))
	}

	if c.Env == "production" {
		if c.DBPassword == defaultDBPassword {
			errs = append(errs, errors.New("POSTGRES_PASSWORD must be set in production"))
		}
		if c.AdminPassword == defaultAdminPassword {
			errs = append(errs, errors.New("ADMIN_PASSWORD must be set in production"))
		}
	}
	return errors.Join(errs...)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SlogLevel is the configured log level. Without one, development logs
// at debug and everything else at info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if c.IsDev() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
