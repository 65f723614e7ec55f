package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Path policies understood by the commit interpreter
const (
	PathPolicyPrefix = "prefix"
	PathPolicyAll    = "all"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Logging configuration
	Log LogConfig

	// GitHub Enterprise configuration
	GHE GHEConfig

	// BIG-IP configuration
	BigIP BigIPConfig

	// Relay pipeline configuration
	Relay RelayConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// GHEConfig holds GitHub Enterprise configuration. Host, AccessToken and
// Debug only seed the settings store; once persisted, the stored values win.
type GHEConfig struct {
	Host               string // IP address or hostname, optionally with scheme
	AccessToken        string
	Debug              bool
	IssuesEnabled      bool
	IssueRepository    string // "org/repo"; empty means the pushing repository
	InsecureSkipVerify bool
}

// BigIPConfig holds the AS3 target configuration
type BigIPConfig struct {
	Host               string // host[:port], optionally with scheme
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// RelayConfig holds pipeline configuration
type RelayConfig struct {
	PathPolicy     string
	ProcessTimeout time.Duration
	HistoryLimit   int
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	// Try to load .env file (ignore errors - it's optional)
	_ = godotenv.Load(".env")

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", ""),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite3"),
			DSN:    getEnv("DB_DSN", "file:relay.db?_foreign_keys=on"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		GHE: GHEConfig{
			Host:               getEnv("GHE_HOST", ""),
			AccessToken:        getEnv("GHE_ACCESS_TOKEN", ""),
			Debug:              getEnvAsBool("GHE_DEBUG", false),
			IssuesEnabled:      getEnvAsBool("GHE_ISSUES_ENABLED", true),
			IssueRepository:    getEnv("GHE_ISSUE_REPOSITORY", ""),
			InsecureSkipVerify: getEnvAsBool("GHE_INSECURE_SKIP_VERIFY", false),
		},
		BigIP: BigIPConfig{
			Host:               getEnv("BIGIP_HOST", "127.0.0.1:8100"),
			Username:           getEnv("BIGIP_USERNAME", ""),
			Password:           getEnv("BIGIP_PASSWORD", ""),
			InsecureSkipVerify: getEnvAsBool("BIGIP_INSECURE_SKIP_VERIFY", false),
			Timeout:            getEnvAsDuration("BIGIP_TIMEOUT", 60*time.Second),
		},
		Relay: RelayConfig{
			PathPolicy:     getEnv("RELAY_PATH_POLICY", PathPolicyPrefix),
			ProcessTimeout: getEnvAsDuration("RELAY_PROCESS_TIMEOUT", 5*time.Minute),
			HistoryLimit:   getEnvAsInt("RELAY_HISTORY_LIMIT", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.GHE.Host == "" {
		return fmt.Errorf("GHE_HOST is required")
	}

	if c.GHE.AccessToken == "" {
		return fmt.Errorf("GHE_ACCESS_TOKEN is required")
	}

	if c.GHE.IssueRepository != "" && strings.Count(c.GHE.IssueRepository, "/") != 1 {
		return fmt.Errorf("invalid GHE_ISSUE_REPOSITORY %q: expected org/repo", c.GHE.IssueRepository)
	}

	if c.BigIP.Host == "" {
		return fmt.Errorf("BIGIP_HOST is required")
	}

	switch c.Relay.PathPolicy {
	case PathPolicyPrefix, PathPolicyAll:
	default:
		return fmt.Errorf("invalid RELAY_PATH_POLICY %q: must be %q or %q", c.Relay.PathPolicy, PathPolicyPrefix, PathPolicyAll)
	}

	if c.Relay.ProcessTimeout <= 0 {
		return fmt.Errorf("invalid RELAY_PROCESS_TIMEOUT: %s", c.Relay.ProcessTimeout)
	}

	if c.Relay.HistoryLimit < 1 {
		return fmt.Errorf("invalid RELAY_HISTORY_LIMIT: %d", c.Relay.HistoryLimit)
	}

	return nil
}

// Address returns the server address in the format host:port
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions to get environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
