// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment selects which override section of the file applies.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	// Production additionally requires a persistent upload-token
	// secret.
	Production Environment = "production"
)

// Config is the configuration of the EdenAPI service.
type Config struct {
	Environment Environment `yaml:"environment"`

	// Server configures the HTTP listener and batch execution.
	Server ServerConfig `yaml:"server"`

	// Storage configures where repositories live and how many stay open.
	Storage StorageConfig `yaml:"storage"`

	// Repos lists the repositories this server serves.
	Repos []RepoConfig `yaml:"repos"`

	// Uploads configures upload-token signing.
	Uploads UploadsConfig `yaml:"uploads"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`

	// Development, Staging, and Production hold overrides merged over
	// the base sections when Environment names them.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides is one environment's override section. Non-zero
// fields replace the base value; a non-empty Repos list replaces the
// base list entirely.
type ConfigOverrides struct {
	Server  *ServerConfig  `yaml:"server,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Repos   []RepoConfig   `yaml:"repos,omitempty"`
	Uploads *UploadsConfig `yaml:"uploads,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Listen is the TCP listen address.
	// Default: 127.0.0.1:8040
	Listen string `yaml:"listen"`

	// ShutdownTimeout bounds how long in-flight batches may keep
	// streaming after shutdown begins.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ReadTimeout bounds reading one request body.
	// Default: 60s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// MaxConcurrentFetches is the number of items of one batch that
	// may be resolved at the same time.
	// Default: 100
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"`

	// MaxRequestBytes caps the size of a request body.
	// Default: 64 MiB
	MaxRequestBytes int64 `yaml:"max_request_bytes"`
}

// StorageConfig configures repository storage.
type StorageConfig struct {
	// Root is the base directory for repository databases. Relative
	// repo paths are resolved against it.
	Root string `yaml:"root"`

	// CacheSize is how many SQLite repositories stay open at once.
	// Default: 16
	CacheSize int `yaml:"cache_size"`

	// Compression is the blob compression for repos that do not set
	// their own: none, lz4, or zstd.
	// Default: lz4
	Compression string `yaml:"compression"`
}

// RepoConfig declares one served repository.
type RepoConfig struct {
	// Name is the repository name used in request paths.
	Name string `yaml:"name"`

	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file. Required for the sqlite
	// backend; relative paths are resolved against Storage.Root.
	Path string `yaml:"path"`

	// Compression overrides Storage.Compression for this repository.
	Compression string `yaml:"compression"`

	// PoolSize is the SQLite connection count. Zero uses the pool's
	// default.
	PoolSize int `yaml:"pool_size"`
}

// UploadsConfig configures upload tokens.
type UploadsConfig struct {
	// TokenSecretFile holds the secret upload tokens are signed with.
	// Required in production. When empty elsewhere, the server signs
	// with a random per-process secret, so tokens do not survive a
	// restart.
	TokenSecretFile string `yaml:"token_secret_file"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the values a config file is decoded over. Repos is
// empty, so a file must still name at least one repository.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Listen:               "127.0.0.1:8040",
			ShutdownTimeout:      30 * time.Second,
			ReadTimeout:          60 * time.Second,
			MaxConcurrentFetches: 100,
			MaxRequestBytes:      64 << 20,
		},
		Storage: StorageConfig{
			Root:        filepath.Join(home, ".cache", "sapling", "repos"),
			CacheSize:   16,
			Compression: "lz4",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the file named by SAPLING_CONFIG. An unset variable is an
// error; there is no search path.
func Load() (*Config, error) {
	path := os.Getenv("SAPLING_CONFIG")
	if path == "" {
		return nil, errors.New("SAPLING_CONFIG environment variable not set; " +
			"point it at the service's YAML config file or pass --config")
	}
	return LoadFile(path)
}

// LoadFile decodes path over Default, merges the override section of
// the selected environment, and expands path variables. Environment
// variables never override values; they are only substituted into
// ${VAR} references.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyOverrides(cfg.overridesFor(cfg.Environment))
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) overridesFor(environment Environment) *ConfigOverrides {
	return map[Environment]*ConfigOverrides{
		Development: c.Development,
		Staging:     c.Staging,
		Production:  c.Production,
	}[environment]
}

// set replaces *target with value unless value is the zero value.
func set[T comparable](target *T, value T) {
	var zero T
	if value != zero {
		*target = value
	}
}

func (c *Config) applyOverrides(overrides *ConfigOverrides) {
	if overrides == nil {
		return
	}
	if server := overrides.Server; server != nil {
		set(&c.Server.Listen, server.Listen)
		set(&c.Server.ShutdownTimeout, server.ShutdownTimeout)
		set(&c.Server.ReadTimeout, server.ReadTimeout)
		set(&c.Server.MaxConcurrentFetches, server.MaxConcurrentFetches)
		set(&c.Server.MaxRequestBytes, server.MaxRequestBytes)
	}
	if storage := overrides.Storage; storage != nil {
		set(&c.Storage.Root, storage.Root)
		set(&c.Storage.CacheSize, storage.CacheSize)
		set(&c.Storage.Compression, storage.Compression)
	}
	if len(overrides.Repos) > 0 {
		c.Repos = overrides.Repos
	}
	if overrides.Uploads != nil {
		set(&c.Uploads.TokenSecretFile, overrides.Uploads.TokenSecretFile)
	}
	if overrides.Logging != nil {
		set(&c.Logging.Level, overrides.Logging.Level)
	}
}

// expandVariables substitutes variables into the path fields, then
// roots relative repository paths at Storage.Root. SAPLING_ROOT refers
// to the expanded storage root.
func (c *Config) expandVariables() {
	c.Storage.Root = expandVars(c.Storage.Root, nil)
	known := map[string]string{"SAPLING_ROOT": c.Storage.Root}

	c.Uploads.TokenSecretFile = expandVars(c.Uploads.TokenSecretFile, known)
	for i := range c.Repos {
		path := expandVars(c.Repos[i].Path, known)
		if path != "" && !filepath.IsAbs(path) {
			path = filepath.Join(c.Storage.Root, path)
		}
		c.Repos[i].Path = path
	}
}

// variableReference matches ${NAME} and ${NAME:-fallback}.
var variableReference = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces each reference with the value from known, then
// the process environment, then the reference's fallback. Empty values
// count as unset.
func expandVars(s string, known map[string]string) string {
	var out strings.Builder
	last := 0
	for _, match := range variableReference.FindAllStringSubmatchIndex(s, -1) {
		out.WriteString(s[last:match[0]])
		name := s[match[2]:match[3]]
		value := known[name]
		if value == "" {
			value = os.Getenv(name)
		}
		if value == "" && match[4] >= 0 {
			value = s[match[4]:match[5]]
		}
		out.WriteString(value)
		last = match[1]
	}
	out.WriteString(s[last:])
	return out.String()
}

// CompressionFor returns the effective compression name for repo.
func (c *Config) CompressionFor(repo RepoConfig) string {
	if repo.Compression != "" {
		return repo.Compression
	}
	return c.Storage.Compression
}

var (
	backends     = []string{"memory", "sqlite"}
	compressions = []string{"none", "lz4", "zstd"}
	logLevels    = []string{"debug", "info", "warn", "error"}
)

// Validate reports every problem in the configuration, joined.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]Environment{Development, Staging, Production}, c.Environment) {
		errs = append(errs, fmt.Errorf("environment must be development, staging, or production, got %q", c.Environment))
	}

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if c.Server.MaxConcurrentFetches < 1 {
		errs = append(errs, fmt.Errorf("server.max_concurrent_fetches must be positive, got %d", c.Server.MaxConcurrentFetches))
	}
	if c.Server.MaxRequestBytes < 1 {
		errs = append(errs, fmt.Errorf("server.max_request_bytes must be positive, got %d", c.Server.MaxRequestBytes))
	}
	if c.Server.ShutdownTimeout < 0 || c.Server.ReadTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}

	if c.Storage.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("storage.cache_size must be positive, got %d", c.Storage.CacheSize))
	}
	if !slices.Contains(compressions, c.Storage.Compression) {
		errs = append(errs, fmt.Errorf("storage.compression must be one of: %v", compressions))
	}

	if len(c.Repos) == 0 {
		errs = append(errs, errors.New("at least one repo is required"))
	}
	seen := make(map[string]bool, len(c.Repos))
	for i, repo := range c.Repos {
		if repo.Name == "" {
			errs = append(errs, fmt.Errorf("repos[%d].name is required", i))
			continue
		}
		if seen[repo.Name] {
			errs = append(errs, fmt.Errorf("repos[%d]: duplicate name %q", i, repo.Name))
		}
		seen[repo.Name] = true
		if !slices.Contains(backends, repo.Backend) {
			errs = append(errs, fmt.Errorf("repos[%d] (%s): backend must be one of: %v", i, repo.Name, backends))
		}
		if repo.Backend == "sqlite" && repo.Path == "" {
			errs = append(errs, fmt.Errorf("repos[%d] (%s): path is required for the sqlite backend", i, repo.Name))
		}
		if repo.Compression != "" && !slices.Contains(compressions, repo.Compression) {
			errs = append(errs, fmt.Errorf("repos[%d] (%s): compression must be one of: %v", i, repo.Name, compressions))
		}
		if repo.PoolSize < 0 {
			errs = append(errs, fmt.Errorf("repos[%d] (%s): pool_size must not be negative", i, repo.Name))
		}
	}

	if c.Environment == Production && c.Uploads.TokenSecretFile == "" {
		errs = append(errs, errors.New("uploads.token_secret_file is required in production"))
	}

	if c.Logging.Level != "" && !slices.Contains(logLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", logLevels))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the storage root and the parent directory of
// every SQLite repository.
func (c *Config) EnsurePaths() error {
	directories := []string{c.Storage.Root}
	for _, repo := range c.Repos {
		if repo.Backend == "sqlite" && repo.Path != "" {
			directories = append(directories, filepath.Dir(repo.Path))
		}
	}
	for _, directory := range directories {
		if directory == "" {
			continue
		}
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}
