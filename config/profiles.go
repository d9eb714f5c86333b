package config

import (
	"fmt"
	"time"
)

// LoadProfile returns a configuration preset for the named deployment profile.
// Environment variables still override the preset values.
func LoadProfile(name string) (*Config, error) {
	var cfg *Config

	switch Environment(name) {
	case EnvDevelopment:
		cfg = developmentProfile()
	case EnvTesting:
		cfg = testingProfile()
	case EnvStaging:
		cfg = stagingProfile()
	case EnvProduction:
		cfg = productionProfile()
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for profile %q: %w", name, err)
	}

	return cfg, nil
}

func developmentProfile() *Config {
	cfg := DefaultConfig()
	cfg.Environment = EnvDevelopment
	cfg.Profile = string(EnvDevelopment)
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "text"
	return cfg
}

func testingProfile() *Config {
	cfg := DefaultConfig()
	cfg.Environment = EnvTesting
	cfg.Profile = string(EnvTesting)
	cfg.Storage.Adapter = "memory"
	cfg.Logging.Level = "warn"
	cfg.Metrics.Enabled = false
	return cfg
}

func stagingProfile() *Config {
	cfg := DefaultConfig()
	cfg.Environment = EnvStaging
	cfg.Profile = string(EnvStaging)
	cfg.Metrics.Enabled = true
	cfg.Security.EnableRateLimit = true
	return cfg
}

func productionProfile() *Config {
	cfg := DefaultConfig()
	cfg.Environment = EnvProduction
	cfg.Profile = string(EnvProduction)
	cfg.Server.CORSOrigin = ""
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	cfg.Metrics.Enabled = true
	cfg.Security.EnableRateLimit = true
	cfg.Security.RateLimit.RequestsPerMinute = 300
	cfg.Security.RateLimit.BurstSize = 50
	cfg.Security.RateLimit.CleanupInterval = 10 * time.Minute
	return cfg
}
