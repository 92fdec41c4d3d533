package transcribe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`

	// RequestTimeoutSeconds overrides the fixed pending-transcription
	// deadline. Zero keeps DefaultTimeout.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// StoreConfig selects and configures the durable key-value store.
type StoreConfig struct {
	// Driver is one of "memory", "bolt", "redis", "postgres".
	Driver string `yaml:"driver"`

	// Path is the database file path (bolt).
	Path string `yaml:"path"`

	// Addr, Password and DB configure the redis connection.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// DSN is the postgres connection string.
	DSN string `yaml:"dsn"`

	// KeyPrefix namespaces keys in shared stores (redis, postgres).
	KeyPrefix string `yaml:"key_prefix"`
}

// LoadConfig reads and parses a YAML config file.
// Environment variables in the format ${VAR} are expanded before parsing.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("transcribe: read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("transcribe: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the config for required fields and consistency.
func (c Config) Validate() error {
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("transcribe: config: request_timeout_seconds must not be negative")
	}

	switch c.Store.Driver {
	case "", "memory":
	case "bolt":
		if c.Store.Path == "" {
			return fmt.Errorf("transcribe: config: store: path is required for the bolt driver")
		}
	case "redis":
		if c.Store.Addr == "" {
			return fmt.Errorf("transcribe: config: store: addr is required for the redis driver")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("transcribe: config: store: dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("transcribe: config: store: unknown driver %q", c.Store.Driver)
	}

	return nil
}
