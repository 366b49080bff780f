// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joeshaw/envdecode"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the process configuration. Defaults are provided via struct tags.
type Config struct {
	// ServerName is advertised as serverInfo.name. ENV: MCP_SERVER_NAME
	ServerName string `env:"MCP_SERVER_NAME,default=light-autom8-mcp-server"`
	// ServerVersion is advertised as serverInfo.version. ENV: MCP_SERVER_VERSION
	ServerVersion string `env:"MCP_SERVER_VERSION,default=1.0.0"`

	// ResourceRoot is the directory backing file:// resources. ENV: MCP_RESOURCE_ROOT
	ResourceRoot string `env:"MCP_RESOURCE_ROOT,default=."`
	// ResourceCatalog optionally names a YAML file replacing the built-in
	// resource list. ENV: MCP_RESOURCE_CATALOG
	ResourceCatalog string `env:"MCP_RESOURCE_CATALOG"`
	// ResourceWatch caches resource contents and invalidates them on change.
	// ENV: MCP_RESOURCE_WATCH
	ResourceWatch bool `env:"MCP_RESOURCE_WATCH,default=false"`

	// Storage selects the vector store backend: memory or redis. ENV: MCP_STORAGE
	Storage string `env:"MCP_STORAGE,default=memory"`
	// StorageMaxItems bounds the memory backend. ENV: MCP_STORAGE_MAX_ITEMS
	StorageMaxItems int `env:"MCP_STORAGE_MAX_ITEMS,default=10000"`
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// StorageKeyPrefix for all redis keys. ENV: MCP_STORAGE_KEY_PREFIX
	StorageKeyPrefix string `env:"MCP_STORAGE_KEY_PREFIX,default=mcp:storage:"`

	// RequireInitialize rejects calls made before initialize. ENV: MCP_REQUIRE_INITIALIZE
	RequireInitialize bool `env:"MCP_REQUIRE_INITIALIZE,default=false"`

	// LogLevel is one of debug, info, warn, error. ENV: LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL,default=info"`
	// LogFormat is text or json. ENV: LOG_FORMAT
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// Load decodes the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that struct tags cannot express.
func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StorageMemory:
		if c.StorageMaxItems <= 0 {
			return fmt.Errorf("config: MCP_STORAGE_MAX_ITEMS must be positive, got %d", c.StorageMaxItems)
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return errors.New("config: REDIS_ADDR is required for redis storage")
		}
	default:
		return fmt.Errorf("config: unknown MCP_STORAGE %q (want memory or redis)", c.Storage)
	}
	if c.ServerName == "" {
		return errors.New("config: MCP_SERVER_NAME must not be empty")
	}
	if c.ResourceRoot == "" {
		c.ResourceRoot = "."
	}
	return nil
}
