package vault

import (
	"context"
	"fmt"
	"sync"

	"pph-ledger/config"

	"github.com/hashicorp/vault/api"
)

// AgentSecretData represents the sensitive agent fields stored in Vault.
// The database keeps only the Vault path and the SSN last four; the full
// values never touch PostgreSQL.
type AgentSecretData struct {
	PayPalEmail    string `json:"paypal_email"`
	PayPalPassword string `json:"paypal_password"`
	SSN            string `json:"ssn"`
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client       *api.Client
	config       config.VaultConfig
	mu           sync.RWMutex
	cache        map[string]*AgentSecretData // agentID -> secret cache
	cacheEnabled bool
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config:       cfg,
			cache:        make(map[string]*AgentSecretData),
			cacheEnabled: true,
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{
		client:       client,
		config:       cfg,
		cache:        make(map[string]*AgentSecretData),
		cacheEnabled: true,
	}, nil
}

// StoreAgentSecret stores an agent's sensitive fields in Vault and returns
// the path they were written to
func (c *Client) StoreAgentSecret(ctx context.Context, agentID string, data AgentSecretData) (string, error) {
	if !c.config.Enabled {
		// Store in local cache only (for development/testing)
		c.mu.Lock()
		c.cache[agentID] = &data
		c.mu.Unlock()
		return c.SecretPath(agentID), nil
	}

	path := c.dataPath(agentID)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"paypal_email":    data.PayPalEmail,
			"paypal_password": data.PayPalPassword,
			"ssn":             data.SSN,
		},
	}

	_, err := c.client.Logical().WriteWithContext(ctx, path, secretData)
	if err != nil {
		return "", fmt.Errorf("failed to store agent secret in vault: %w", err)
	}

	// Update cache
	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[agentID] = &data
		c.mu.Unlock()
	}

	return c.SecretPath(agentID), nil
}

// GetAgentSecret retrieves an agent's sensitive fields from Vault
func (c *Client) GetAgentSecret(ctx context.Context, agentID string) (*AgentSecretData, error) {
	// Check cache first
	if c.cacheEnabled {
		c.mu.RLock()
		if cached, ok := c.cache[agentID]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()
	}

	if !c.config.Enabled {
		return nil, fmt.Errorf("agent secret not found and vault is disabled")
	}

	path := c.dataPath(agentID)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent secret from vault: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("agent secret not found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format")
	}

	secretData := &AgentSecretData{
		PayPalEmail:    getString(data, "paypal_email"),
		PayPalPassword: getString(data, "paypal_password"),
		SSN:            getString(data, "ssn"),
	}

	// Update cache
	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[agentID] = secretData
		c.mu.Unlock()
	}

	return secretData, nil
}

// DeleteAgentSecret deletes an agent's sensitive fields from Vault
func (c *Client) DeleteAgentSecret(ctx context.Context, agentID string) error {
	// Remove from cache
	c.mu.Lock()
	delete(c.cache, agentID)
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	path := c.metadataPath(agentID)

	_, err := c.client.Logical().DeleteWithContext(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to delete agent secret from vault: %w", err)
	}

	return nil
}

// ClearCache clears the in-memory cache
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*AgentSecretData)
	c.mu.Unlock()
}

// InvalidateCacheForAgent removes a cached secret for a specific agent
func (c *Client) InvalidateCacheForAgent(agentID string) {
	c.mu.Lock()
	delete(c.cache, agentID)
	c.mu.Unlock()
}

// SetCacheEnabled enables or disables caching
func (c *Client) SetCacheEnabled(enabled bool) {
	c.mu.Lock()
	c.cacheEnabled = enabled
	c.mu.Unlock()
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().Health()
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

// SecretPath returns the logical path recorded on the agent row
func (c *Client) SecretPath(agentID string) string {
	return fmt.Sprintf("%s/%s", c.config.SecretPath, agentID)
}

// dataPath returns the KV v2 data path for an agent's secret
func (c *Client) dataPath(agentID string) string {
	return fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, agentID)
}

// metadataPath returns the KV v2 metadata path for an agent's secret
func (c *Client) metadataPath(agentID string) string {
	return fmt.Sprintf("%s/metadata/%s/%s", c.config.MountPath, c.config.SecretPath, agentID)
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// NewMockClient creates a disabled client for testing
func NewMockClient() *Client {
	return &Client{
		config: config.VaultConfig{
			Enabled: false,
		},
		cache:        make(map[string]*AgentSecretData),
		cacheEnabled: true,
	}
}
