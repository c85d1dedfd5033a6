package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the server configuration, loaded from YAML with environment
// overrides for deploy-time values.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	MarketData struct {
		// Base URL of the market data page set the scraper reads
		BaseURL string `yaml:"base_url"`
		// Default organization for snapshots when requests carry none
		OrganizationID string `yaml:"organization_id"`
	} `yaml:"market_data"`

	Reports struct {
		// Directory generated artifacts are written to
		OutputDir string `yaml:"output_dir"`
	} `yaml:"reports"`
}

// Load reads the YAML file at path and applies env overrides. A missing
// file is not an error; defaults and environment carry a bare deployment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Reports.OutputDir = "reports"

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	// Environment wins over file values
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if base := os.Getenv("MARKET_DATA_BASE_URL"); base != "" {
		cfg.MarketData.BaseURL = base
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("config: invalid server port %d", cfg.Server.Port)
	}
	return cfg, nil
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
