package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SecretStore resolves secret values such as API keys and DSN passwords.
// Implementations may back onto environment variables, files, or an
// external secret manager.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, fallback string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

// NewEnvironmentSecretStore returns a SecretStore backed by os.Getenv.
func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

// Get returns the value of the named environment variable, or an error
// when it is unset.
func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %q not found in environment", key)
	}
	return value, nil
}

// GetWithDefault returns the value of the named environment variable,
// falling back to the given default when it is unset.
func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, fallback string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

var _ SecretStore = (*EnvironmentSecretStore)(nil)

// Environment variable names honored by LoadSecretsFromEnv.
const (
	secretSQLDSN        = "PROMOKIT_SECRET_SQL_DSN"
	secretRedisPassword = "PROMOKIT_SECRET_REDIS_PASSWORD"
	secretAPIKeys       = "PROMOKIT_SECRET_API_KEYS"
)

// LoadSecretsFromEnv overlays sensitive values from the environment secret
// store onto the configuration. Unset secrets leave the existing values
// untouched.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	store := NewEnvironmentSecretStore()

	if dsn := store.GetWithDefault(ctx, secretSQLDSN, ""); dsn != "" {
		c.Storage.SQL.DSN = dsn
	}
	if password := store.GetWithDefault(ctx, secretRedisPassword, ""); password != "" {
		c.Storage.Redis.Password = password
	}
	if keys := store.GetWithDefault(ctx, secretAPIKeys, ""); keys != "" {
		c.Security.APIKeys = splitAndTrim(keys)
	}

	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
