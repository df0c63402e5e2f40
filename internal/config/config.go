package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Defaults applied by Validate
const (
	DefaultRedisURL       = "redis://localhost:6379"
	DefaultNamespace      = "default"
	DefaultSQLitePath     = "concepto.db"
	DefaultStatusAddr     = "127.0.0.1:8787"
	DefaultThrottleWindow = 30 * time.Second
	DefaultRemoteTimeout  = 15 * time.Second

	// APIKeyEnv overrides remote.api_key when set
	APIKeyEnv = "CONCEPTO_API_KEY"

	maxNamespaceLength = 63
)

// namespacePattern keeps Redis key prefixes DNS-style: lowercase alphanumeric
// with inner hyphens.
var namespacePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ConceptoConfig represents the top-level concepto.yml configuration
type ConceptoConfig struct {
	Version string        `yaml:"version"`
	Store   *StoreConfig  `yaml:"store,omitempty"`
	Remote  *RemoteConfig `yaml:"remote,omitempty"`
	Sync    *SyncConfig   `yaml:"sync,omitempty"`
	Status  *StatusConfig `yaml:"status,omitempty"`
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Backend    string `yaml:"backend"`               // redis, sqlite or remote
	RedisURL   string `yaml:"redis_url,omitempty"`   // redis backend
	Namespace  string `yaml:"namespace,omitempty"`   // redis backend: studio key prefix
	SQLitePath string `yaml:"sqlite_path,omitempty"` // sqlite backend
}

// RemoteConfig points at Concepto's external API
type RemoteConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key,omitempty"` // Prefer CONCEPTO_API_KEY
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// SyncConfig tunes show loading
type SyncConfig struct {
	ThrottleWindow time.Duration `yaml:"throttle_window,omitempty"` // Default 30s
	FetchTimeout   time.Duration `yaml:"fetch_timeout,omitempty"`   // 0 = no timeout
}

// StatusConfig configures the status HTTP server (concepto serve)
type StatusConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted sections.
func (c *ConceptoConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}

	if c.Store.Backend == BackendRemote {
		if c.Remote == nil {
			return fmt.Errorf("store.backend is 'remote' but no remote section is configured")
		}
		if err := c.Remote.Validate(); err != nil {
			return err
		}
	}

	if c.Sync == nil {
		c.Sync = &SyncConfig{}
	}
	if c.Sync.ThrottleWindow == 0 {
		c.Sync.ThrottleWindow = DefaultThrottleWindow
	}
	if c.Sync.ThrottleWindow < 0 {
		return fmt.Errorf("sync.throttle_window must be positive, got %s", c.Sync.ThrottleWindow)
	}
	if c.Sync.FetchTimeout < 0 {
		return fmt.Errorf("sync.fetch_timeout must be >= 0 (0 = none), got %s", c.Sync.FetchTimeout)
	}

	if c.Status == nil {
		c.Status = &StatusConfig{}
	}
	if c.Status.Addr == "" {
		c.Status.Addr = DefaultStatusAddr
	}

	return nil
}

// Validate checks the store section and applies backend defaults
func (s *StoreConfig) Validate() error {
	if s.Backend == "" {
		s.Backend = BackendRedis
	}

	switch s.Backend {
	case BackendRedis:
		if s.RedisURL == "" {
			s.RedisURL = DefaultRedisURL
		}
		if s.Namespace == "" {
			s.Namespace = DefaultNamespace
		}
		return ValidateNamespace(s.Namespace)
	case BackendSQLite:
		if s.SQLitePath == "" {
			s.SQLitePath = DefaultSQLitePath
		}
		return nil
	case BackendRemote:
		return nil
	default:
		return fmt.Errorf("invalid store.backend: %s (must be 'redis', 'sqlite', or 'remote')", s.Backend)
	}
}

// Validate checks the remote section
func (r *RemoteConfig) Validate() error {
	if r.Endpoint == "" {
		return fmt.Errorf("remote.endpoint is required")
	}
	if r.APIKey == "" {
		return fmt.Errorf("remote.api_key is required (or set %s)", APIKeyEnv)
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultRemoteTimeout
	}
	if r.Timeout < 0 {
		return fmt.Errorf("remote.timeout must be positive, got %s", r.Timeout)
	}
	return nil
}

// ValidateNamespace checks a studio namespace according to DNS naming rules.
func ValidateNamespace(name string) error {
	if name == "" {
		return fmt.Errorf("namespace cannot be empty")
	}

	if len(name) > maxNamespaceLength {
		return fmt.Errorf("namespace too long: %d characters (max: %d)", len(name), maxNamespaceLength)
	}

	if !namespacePattern.MatchString(name) {
		return fmt.Errorf("invalid namespace '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}

	return nil
}

// Load reads and validates concepto.yml from the specified path
func Load(path string) (*ConceptoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates configuration bytes. The API key environment
// variable takes precedence over the file.
func Parse(data []byte) (*ConceptoConfig, error) {
	var config ConceptoConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if key := os.Getenv(APIKeyEnv); key != "" && config.Remote != nil {
		config.Remote.APIKey = key
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
