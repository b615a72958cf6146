package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SecretStore abstracts retrieval of sensitive values like DSNs and API keys.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, def string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s is not set", key)
	}
	return value, nil
}

func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	return value
}

// LoadSecretsFromEnv fills sensitive config values from the environment
// secret store, keeping them out of config files.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	store := NewEnvironmentSecretStore()
	c.Storage.SQL.DSN = store.GetWithDefault(ctx, "FITCOMP_STORAGE_SQL_DSN", c.Storage.SQL.DSN)
	c.Storage.Redis.Password = store.GetWithDefault(ctx, "FITCOMP_STORAGE_REDIS_PASSWORD", c.Storage.Redis.Password)
	if keys := store.GetWithDefault(ctx, "FITCOMP_SECURITY_API_KEYS", ""); keys != "" {
		c.Security.APIKeys = splitAndTrim(keys)
	}
	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
