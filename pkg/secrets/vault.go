package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aura/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

var (
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// VaultConfig holds configuration for Vault client
type VaultConfig struct {
	Address     string
	Token       string
	Namespace   string
	Mount       string
	SecretsPath string
	Timeout     time.Duration
	MaxRetries  int
	CacheTTL    time.Duration
}

type cachedSecret struct {
	value   string
	expires time.Time
}

// VaultManager reads secrets from a KV v2 engine, falling back to Fallback
// (the environment by default) for keys Vault does not hold.
type VaultManager struct {
	client   *vault.Client
	cfg      VaultConfig
	fallback Manager
	log      *logger.Logger

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

// NewVaultManager creates a new Vault manager instance
func NewVaultManager(cfg VaultConfig, log *logger.Logger) (*VaultManager, error) {
	if cfg.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if cfg.Token == "" {
		return nil, ErrNoVaultToken
	}
	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}
	if cfg.SecretsPath == "" {
		cfg.SecretsPath = "aura"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	vaultConfig.Timeout = cfg.Timeout
	vaultConfig.MaxRetries = cfg.MaxRetries

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &VaultManager{
		client:   client,
		cfg:      cfg,
		fallback: EnvManager{},
		log:      log.WithComponent("secrets"),
		cache:    make(map[string]cachedSecret),
	}, nil
}

// GetSecret retrieves a secret from Vault, with fallback to environment variable
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	cached, found := m.cache[key]
	m.mu.RUnlock()
	if found && time.Now().Before(cached.expires) {
		return cached.value, nil
	}

	value, err := m.getFromVault(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			m.log.Debug("Secret not found in Vault, falling back", "key", key)
		} else {
			m.log.Warn("Vault read failed, falling back", "key", key, "error", err.Error())
		}
		return m.fallback.GetSecret(ctx, key)
	}

	m.mu.Lock()
	m.cache[key] = cachedSecret{value: value, expires: time.Now().Add(m.cfg.CacheTTL)}
	m.mu.Unlock()

	return value, nil
}

func (m *VaultManager) getFromVault(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2(m.cfg.Mount).Get(ctx, m.cfg.SecretsPath)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	value, ok := secret.Data[key].(string)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}
