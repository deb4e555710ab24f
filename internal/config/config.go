package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/0xmhha/bitquery-go/internal/constants"
)

// Config holds all configuration for the Bitquery client
type Config struct {
	Bitquery BitqueryConfig `yaml:"bitquery"`
	Retry    RetryConfig    `yaml:"retry"`
	Log      LogConfig      `yaml:"log"`
}

// BitqueryConfig holds API credentials and endpoints
type BitqueryConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Endpoint     string        `yaml:"endpoint"`
	TokenURL     string        `yaml:"token_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RetryConfig holds the status-code retry policy
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero disables retries.
	MaxRetries int `yaml:"max_retries"`
	// Delay is the fixed wait between attempts
	Delay time.Duration `yaml:"delay"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	cfg := &Config{
		Retry: RetryConfig{MaxRetries: constants.DefaultMaxRetries},
	}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset values. MaxRetries is left alone since zero is a
// valid setting; NewConfig seeds it instead.
func (c *Config) SetDefaults() {
	if c.Bitquery.Endpoint == "" {
		c.Bitquery.Endpoint = constants.DefaultEndpoint
	}
	if c.Bitquery.TokenURL == "" {
		c.Bitquery.TokenURL = constants.DefaultTokenURL
	}
	if c.Bitquery.Timeout == 0 {
		c.Bitquery.Timeout = constants.DefaultRequestTimeout
	}

	if c.Retry.Delay == 0 {
		c.Retry.Delay = constants.DefaultRetryDelay
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// LoadFromEnv loads configuration from environment variables
// Environment variables take precedence over file configuration
func (c *Config) LoadFromEnv() error {
	if id := os.Getenv(constants.EnvClientID); id != "" {
		c.Bitquery.ClientID = id
	}
	if secret := os.Getenv(constants.EnvClientSecret); secret != "" {
		c.Bitquery.ClientSecret = secret
	}
	if endpoint := os.Getenv(constants.EnvEndpoint); endpoint != "" {
		c.Bitquery.Endpoint = endpoint
	}
	if tokenURL := os.Getenv(constants.EnvTokenURL); tokenURL != "" {
		c.Bitquery.TokenURL = tokenURL
	}
	if timeout := os.Getenv(constants.EnvTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvTimeout, err)
		}
		c.Bitquery.Timeout = d
	}

	if retries := os.Getenv(constants.EnvMaxRetries); retries != "" {
		val, err := strconv.Atoi(retries)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvMaxRetries, err)
		}
		c.Retry.MaxRetries = val
	}
	if delay := os.Getenv(constants.EnvRetryDelay); delay != "" {
		ms, err := strconv.Atoi(delay)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvRetryDelay, err)
		}
		c.Retry.Delay = time.Duration(ms) * time.Millisecond
	}

	if level := os.Getenv(constants.EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv(constants.EnvLogFormat); format != "" {
		c.Log.Format = format
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Bitquery.ClientID == "" {
		return fmt.Errorf("client id is required (%s)", constants.EnvClientID)
	}
	if c.Bitquery.ClientSecret == "" {
		return fmt.Errorf("client secret is required (%s)", constants.EnvClientSecret)
	}
	if err := validateURL("endpoint", c.Bitquery.Endpoint); err != nil {
		return err
	}
	if err := validateURL("token url", c.Bitquery.TokenURL); err != nil {
		return err
	}
	if c.Bitquery.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Log.Level)
	}

	validLogFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, console", c.Log.Format)
	}

	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an absolute http(s) URL", name, raw)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s exists but is a directory", path)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load is a convenience method that loads configuration in the following order:
// 1. Set defaults
// 2. Load from file (if provided)
// 3. Load from environment variables (override file)
// 4. Validate
func Load(configFile string) (*Config, error) {
	cfg := NewConfig()

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
