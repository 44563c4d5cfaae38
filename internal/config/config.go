package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Region        string `yaml:"region"`
	Prefix        string `yaml:"prefix"`
	Endpoint      string `yaml:"endpoint"`
	DefaultOutput string `yaml:"default_output"`
	LogLevel      string `yaml:"log_level"`
}

// DefaultRegion is the AWS region used when neither flag, env nor config file sets one.
const DefaultRegion = "eu-central-1"

// DefaultPrefix is the key namespace the mail receiver writes raw messages under.
const DefaultPrefix = "raw/"

// DefaultLogLevel keeps stdout free for the link; logs go to stderr.
const DefaultLogLevel = "warn"

// ErrInvalidValue marks a config value outside its allowed set.
var ErrInvalidValue = errors.New("invalid config value")

var (
	outputFormats = []string{"pretty", "json"}
	logLevels     = []string{"debug", "info", "warn", "warning", "error"}
)

// Package-level state
var current Config

// Validate checks the enumerated keys. Empty values mean "use the default".
func (c *Config) Validate() error {
	if c.DefaultOutput != "" && !oneOf(c.DefaultOutput, outputFormats) {
		return fmt.Errorf("%w: default_output %q (valid: %s)", ErrInvalidValue, c.DefaultOutput, strings.Join(outputFormats, ", "))
	}
	if c.LogLevel != "" && !oneOf(strings.ToLower(c.LogLevel), logLevels) {
		return fmt.Errorf("%w: log_level %q (valid: %s)", ErrInvalidValue, c.LogLevel, strings.Join(logLevels, ", "))
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Dir returns the magiclink config directory path.
// Respects MAGICLINK_CONFIG_DIR environment variable if set.
func Dir() (string, error) {
	if dir := os.Getenv("MAGICLINK_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "magiclink"), nil
}

// Path returns the config file path (~/.config/magiclink/config.yaml)
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file and returns the Config struct.
// Returns an empty Config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnsureDir creates the config directory if it doesn't exist
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// LoadFromFile reads configuration from a YAML file into package state.
func LoadFromFile(path string) error {
	current = Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No config file is fine
		}
		return err
	}
	if err := yaml.Unmarshal(data, &current); err != nil {
		return err
	}
	return current.Validate()
}

// getConfigValue returns config with priority: env (MAGICLINK_<key>) > config file > default
func getConfigValue(envKey, fileValue, defaultValue string) string {
	if env := os.Getenv("MAGICLINK_" + envKey); env != "" {
		return env
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// GetRegion returns the S3 region with priority: env > config file > default
func GetRegion() string {
	return getConfigValue("REGION", current.Region, DefaultRegion)
}

// GetPrefix returns the object key prefix with priority: env > config file > default
func GetPrefix() string {
	return getConfigValue("PREFIX", current.Prefix, DefaultPrefix)
}

// GetEndpoint returns the S3 endpoint override, empty for the AWS default.
func GetEndpoint() string {
	return getConfigValue("ENDPOINT", current.Endpoint, "")
}

// GetDefaultOutput returns the output format with priority: env > config file > default
func GetDefaultOutput() string {
	return getConfigValue("OUTPUT", current.DefaultOutput, "pretty")
}

// GetLogLevel returns the log level with priority: env > config file > default
func GetLogLevel() string {
	return getConfigValue("LOG_LEVEL", current.LogLevel, DefaultLogLevel)
}

// Save writes the config to disk as YAML
func Save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	configPath, err := Path()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}
