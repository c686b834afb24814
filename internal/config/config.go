package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration. Store connection settings can
// be overridden from the environment; credentials live in a separate
// file so they stay out of checked-in config.
type Config struct {
	DataDirectory string  `yaml:"data_directory"`
	DatabaseURL   string  `yaml:"database_url"`
	DatabaseName  string  `yaml:"database_name"`
	Port          int     `yaml:"port"`
	TestSize      float64 `yaml:"test_size"`
	TrainingBBox  float64 `yaml:"training_bbox"`
	OverpassURL   string  `yaml:"overpass_url"`
	LogLevel      string  `yaml:"log_level"`
}

// Credentials holds the record store login.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads and parses a YAML configuration file and applies defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := defaults()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides the store location
// with DATABASE_URL, DATABASE_NAME, DATABASE_PORT and OVERPASS_URL when
// set.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		c.DatabaseName = v
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse DATABASE_PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("OVERPASS_URL"); v != "" {
		c.OverpassURL = v
	}
	return c, nil
}

func defaults() *Config {
	return &Config{
		DataDirectory: "data",
		DatabaseURL:   "localhost",
		DatabaseName:  "property_prices",
		Port:          5432,
		TestSize:      0.2,
		TrainingBBox:  0.5,
		OverpassURL:   "https://overpass-api.de/api/interpreter",
		LogLevel:      "info",
	}
}

func (c *Config) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must lie in (0, 1), got %f", c.TestSize)
	}
	if c.TrainingBBox <= 0 {
		return fmt.Errorf("training_bbox must be positive, got %f", c.TrainingBBox)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must lie in (0, 65535], got %d", c.Port)
	}
	return nil
}

// DSN builds the Postgres connection string for the record store.
func (c *Config) DSN(cred *Credentials) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DatabaseURL, c.Port, cred.Username, cred.Password, c.DatabaseName)
}

// ReadCredentials loads the record store login from a YAML file.
func ReadCredentials(path string) (*Credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var cred Credentials
	if err := yaml.Unmarshal(b, &cred); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if cred.Username == "" {
		return nil, fmt.Errorf("credentials file %s has no username", path)
	}
	return &cred, nil
}
