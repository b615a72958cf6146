package config

import (
	"fmt"
	"time"
)

// LoadProfile returns a configuration preset for a named deployment profile,
// with environment variables applied on top.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Profile = name

	switch name {
	case "development":
		cfg.Environment = EnvDevelopment
	case "testing":
		cfg.Environment = EnvTesting
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	case "staging":
		cfg.Environment = EnvStaging
		cfg.Security.EnableRateLimit = true
	case "production":
		cfg.Environment = EnvProduction
		cfg.Server.CORSOrigin = ""
		cfg.Server.ShutdownTimeout = 60 * time.Second
		cfg.Security.EnableRateLimit = true
	default:
		return nil, fmt.Errorf("unknown profile: %s", name)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
