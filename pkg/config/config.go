package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEffective loads config from the given path and applies environment
// overrides on top. A missing file is not fatal; env alone can carry a
// runnable configuration.
func LoadEffective(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) && path != "" {
			if _, statErr := os.Stat(path); statErr == nil {
				// file exists but did not parse
				return nil, false, err
			}
		}
		cfg = &Config{}
	}
	envUsed := LoadEnvOverrides(cfg)
	return cfg, envUsed, nil
}

// Validate checks the fields the agent cannot run without.
func (c *Config) Validate() error {
	if c.Application.ID == "" {
		return fmt.Errorf("application.id is required")
	}
	if c.Intake.URL == "" {
		return fmt.Errorf("intake.url is required")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	return nil
}

// ResolveConfigPath decides the config file path using the flag-provided value
// and the environment variable `RUMAGENT_CONFIG` when the flag was not set.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("RUMAGENT_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
