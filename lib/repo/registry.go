// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Backend selects the storage implementation for a configured
// repository.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
)

// DefaultCacheSize is the number of SQLite repositories kept open when
// RegistryConfig.CacheSize is zero.
const DefaultCacheSize = 16

// Definition describes one configured repository.
type Definition struct {
	Name    string
	Backend Backend

	// Path is the database file for BackendSQLite.
	Path string

	// PoolSize and Compression are passed to OpenSQLite.
	PoolSize    int
	Compression CompressionTag
}

// RegistryConfig holds the parameters for NewRegistry.
type RegistryConfig struct {
	Repos []Definition

	// CacheSize bounds how many SQLite repositories are open at once.
	// Least recently acquired repositories are closed first.
	CacheSize int

	// Logger is required.
	Logger *slog.Logger
}

// Registry maps repository names to storage. Memory repositories live
// for the lifetime of the registry; SQLite repositories are opened on
// first use and kept in an LRU cache. A repository evicted while
// requests still hold it is closed when the last of them releases it.
//
// Registry is safe for concurrent use.
type Registry struct {
	logger      *slog.Logger
	definitions map[string]Definition

	mu       sync.Mutex
	resident map[string]Store
	open     *lru.Cache[string, *sqliteHandle]
	closed   bool
}

// sqliteHandle reference-counts an open SQLite repository. Guarded by
// Registry.mu.
type sqliteHandle struct {
	repo    *SQLiteRepo
	refs    int
	evicted bool
}

// NewRegistry validates the definitions and creates memory-backed
// repositories. SQLite databases are not opened until acquired.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("repo registry: Logger is required")
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	registry := &Registry{
		logger:      cfg.Logger,
		definitions: make(map[string]Definition, len(cfg.Repos)),
		resident:    make(map[string]Store),
	}

	for _, definition := range cfg.Repos {
		if definition.Name == "" {
			return nil, fmt.Errorf("repo registry: repository with empty name")
		}
		if _, duplicate := registry.definitions[definition.Name]; duplicate {
			return nil, fmt.Errorf("repo registry: repository %q defined twice", definition.Name)
		}
		switch definition.Backend {
		case BackendMemory:
			registry.resident[definition.Name] = NewMemoryRepo(definition.Name)
		case BackendSQLite:
			if definition.Path == "" {
				return nil, fmt.Errorf("repo registry: repository %q: sqlite backend requires a path", definition.Name)
			}
		default:
			return nil, fmt.Errorf("repo registry: repository %q: unknown backend %q", definition.Name, definition.Backend)
		}
		registry.definitions[definition.Name] = definition
	}

	open, err := lru.NewWithEvict(cacheSize, registry.onEvict)
	if err != nil {
		return nil, fmt.Errorf("repo registry: %w", err)
	}
	registry.open = open
	return registry, nil
}

// Register adds an already constructed store under its Name. The
// store stays resident for the life of the registry and is not closed
// by it. Tests and embedded servers use this to serve prepared data.
func (r *Registry) Register(store Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := store.Name()
	if _, exists := r.definitions[name]; exists {
		return fmt.Errorf("repo registry: repository %q already registered", name)
	}
	r.definitions[name] = Definition{Name: name, Backend: BackendMemory}
	r.resident[name] = store
	return nil
}

// Names returns the configured repository names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Acquire returns the repository context for name. The caller must call
// release once it has finished with the context (typically when the
// response stream ends). Unknown names fail with ErrUnknownRepo.
func (r *Registry) Acquire(ctx context.Context, name string) (Context, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, nil, fmt.Errorf("repo registry: %w", ErrClosed)
	}
	definition, ok := r.definitions[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownRepo, name)
	}
	if store, ok := r.resident[name]; ok {
		return store, func() {}, nil
	}

	handle, ok := r.open.Get(name)
	if !ok {
		repo, err := OpenSQLite(SQLiteConfig{
			Name:        definition.Name,
			Path:        definition.Path,
			PoolSize:    definition.PoolSize,
			Compression: definition.Compression,
			Logger:      r.logger,
		})
		if err != nil {
			return nil, nil, err
		}
		handle = &sqliteHandle{repo: repo}
		// Add may evict another repository; onEvict runs
		// synchronously under r.mu.
		r.open.Add(name, handle)
	}
	handle.refs++

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			handle.refs--
			if handle.evicted && handle.refs == 0 {
				r.closeHandle(handle)
			}
		})
	}
	return handle.repo, release, nil
}

// onEvict is the LRU eviction callback. It runs with r.mu held (every
// cache mutation happens under the lock).
func (r *Registry) onEvict(name string, handle *sqliteHandle) {
	handle.evicted = true
	if handle.refs == 0 {
		r.closeHandle(handle)
		return
	}
	r.logger.Info("repository evicted while in use, closing on release",
		"repo", name,
		"refs", handle.refs,
	)
}

func (r *Registry) closeHandle(handle *sqliteHandle) {
	if err := handle.repo.Close(); err != nil {
		r.logger.Error("closing repository",
			"repo", handle.repo.Name(),
			"error", err,
		)
	}
}

// Close closes every idle SQLite repository and refuses further
// Acquire calls. Repositories still held are closed on release.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.open.Purge()
	return nil
}
