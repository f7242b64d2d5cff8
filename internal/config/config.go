package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Staging   StagingConfig   `yaml:"staging"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Auth      AuthConfig      `yaml:"auth"`
	Worker    WorkerConfig    `yaml:"worker"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StagingConfig contains S3-compatible object storage settings for batch
// artifacts.
type StagingConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    *bool  `yaml:"use_ssl"`
	AccessKey string `yaml:"-"` // env-only, never in YAML
	SecretKey string `yaml:"-"` // env-only, never in YAML
}

// Configured reports whether object storage is usable: drain cycles need a
// bucket and an endpoint to stage artifacts.
func (s StagingConfig) Configured() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

// WarehouseConfig contains warehouse load-job endpoint settings.
type WarehouseConfig struct {
	BaseURL     string `yaml:"base_url"`
	OrdersTable string `yaml:"orders_table"`
	RunsTable   string `yaml:"runs_table"`
	APIKey      string `yaml:"-"` // env-only, never in YAML
}

// Configured reports whether a load-job endpoint is set.
func (w WarehouseConfig) Configured() bool {
	return w.BaseURL != ""
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	SyncInterval Duration `yaml:"sync_interval"`
	BatchSize    int      `yaml:"batch_size"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("FARMASYNC_CONFIG_PATH", "config/farmasync.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/farmasync.db",
		},
		Staging: StagingConfig{
			Region: "us-east-1",
		},
		Warehouse: WarehouseConfig{
			OrdersTable: "orders",
			RunsTable:   "delivery_runs",
		},
		Worker: WorkerConfig{
			SyncInterval: Duration(5 * time.Minute),
			BatchSize:    500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("FARMASYNC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FARMASYNC_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("FARMASYNC_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("FARMASYNC_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("FARMASYNC_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Staging
	if v := os.Getenv("FARMASYNC_STAGING_ENDPOINT"); v != "" {
		cfg.Staging.Endpoint = v
	}
	if v := os.Getenv("FARMASYNC_STAGING_BUCKET"); v != "" {
		cfg.Staging.Bucket = v
	}
	if v := os.Getenv("FARMASYNC_STAGING_REGION"); v != "" {
		cfg.Staging.Region = v
	}
	if v := os.Getenv("FARMASYNC_STAGING_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Staging.UseSSL = &useSSL
	}
	if v := os.Getenv("FARMASYNC_STAGING_ACCESS_KEY"); v != "" {
		cfg.Staging.AccessKey = v
	}
	if v := os.Getenv("FARMASYNC_STAGING_SECRET_KEY"); v != "" {
		cfg.Staging.SecretKey = v
	}

	// Warehouse
	if v := os.Getenv("FARMASYNC_WAREHOUSE_URL"); v != "" {
		cfg.Warehouse.BaseURL = v
	}
	if v := os.Getenv("FARMASYNC_WAREHOUSE_ORDERS_TABLE"); v != "" {
		cfg.Warehouse.OrdersTable = v
	}
	if v := os.Getenv("FARMASYNC_WAREHOUSE_RUNS_TABLE"); v != "" {
		cfg.Warehouse.RunsTable = v
	}
	if v := os.Getenv("FARMASYNC_WAREHOUSE_API_KEY"); v != "" {
		cfg.Warehouse.APIKey = v
	}

	// Auth
	if v := os.Getenv("FARMASYNC_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Worker
	if v := os.Getenv("FARMASYNC_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Worker.SyncInterval = Duration(d)
		}
	}
	if v := os.Getenv("FARMASYNC_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.BatchSize = n
		}
	}

	// Log
	if v := os.Getenv("FARMASYNC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FARMASYNC_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (FARMASYNC_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if c.Worker.BatchSize <= 0 {
		return fmt.Errorf("worker batch_size must be positive, got %d", c.Worker.BatchSize)
	}
	if time.Duration(c.Worker.SyncInterval) <= 0 {
		return errors.New("worker sync_interval must be positive")
	}

	// Dev mode bypasses API key validation
	if os.Getenv("FARMASYNC_DEV_MODE") == "true" {
		return nil
	}

	if c.Auth.APIKey == "" {
		return errors.New("FARMASYNC_API_KEY is required")
	}
	if c.Staging.Configured() && (c.Staging.AccessKey == "" || c.Staging.SecretKey == "") {
		return errors.New("FARMASYNC_STAGING_ACCESS_KEY and FARMASYNC_STAGING_SECRET_KEY are required when staging is configured")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
