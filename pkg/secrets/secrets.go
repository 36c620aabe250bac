package secrets

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Well-known secret keys. Each falls back to the upper-cased env variable.
const (
	KeyOpenAI      = "openai_api_key"
	KeyGemini      = "gemini_api_key"
	KeyJWT         = "jwt_secret"
	KeyEvidence    = "evidence_master_key"
	KeyRedisPasswd = "redis_password"
)

var ErrSecretNotFound = errors.New("secret not found")

// Manager provides access to secrets from various sources
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)
}

// GetSecretWithDefault resolves key through m, returning fallback when it is absent
func GetSecretWithDefault(ctx context.Context, m Manager, key, fallback string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

// EnvManager reads secrets from the process environment only
type EnvManager struct{}

// GetSecret implements Manager
func (EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	value := os.Getenv(EnvKey(key))
	if value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

// EnvKey maps "openai-api.key" style names onto OPENAI_API_KEY
func EnvKey(key string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}

// StaticManager serves a fixed map; used by tests and the CLI
type StaticManager map[string]string

// GetSecret implements Manager
func (m StaticManager) GetSecret(_ context.Context, key string) (string, error) {
	if v, ok := m[key]; ok && v != "" {
		return v, nil
	}
	return "", ErrSecretNotFound
}
