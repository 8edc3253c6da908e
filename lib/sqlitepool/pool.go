// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Config describes a repository database.
type Config struct {
	// Path is the database file. Its directory must exist.
	Path string

	// Size is the number of connections. Zero or negative selects
	// max(runtime.NumCPU(), 4).
	Size int

	// Migrations are schema scripts in version order. Open applies
	// every script past the version recorded in the database's
	// user_version and records the new version, each script in its own
	// transaction.
	Migrations []string

	// Logger receives open, close, and migration messages. Nil
	// discards them.
	Logger *slog.Logger
}

// Pool is a fixed set of SQLite connections to one database. Safe for
// concurrent use; the connection handed to a Read or Write callback is
// not, and must not escape it.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// connectionPragmas run on every connection before first use.
var connectionPragmas = []string{
	"journal_mode=WAL",
	"synchronous=NORMAL",
	"busy_timeout=5000",
	"foreign_keys=OFF",
	"cache_size=-8192",
	"mmap_size=268435456",
	"temp_store=MEMORY",
}

// Open opens the database, creating it if needed, and brings its
// schema up to date. A database whose schema version is newer than
// len(cfg.Migrations) is refused.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	size := cfg.Size
	if size <= 0 {
		size = max(runtime.NumCPU(), 4)
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    size,
		PrepareConn: applyPragmas,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}
	pool := &Pool{inner: inner, logger: logger, path: cfg.Path}

	if err := pool.migrate(cfg.Migrations); err != nil {
		inner.Close()
		return nil, err
	}
	logger.Info("sqlite database opened", "path", cfg.Path, "pool_size", size, "schema_version", len(cfg.Migrations))
	return pool, nil
}

func applyPragmas(conn *sqlite.Conn) error {
	for _, pragma := range connectionPragmas {
		if err := sqlitex.ExecuteTransient(conn, "PRAGMA "+pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: PRAGMA %s: %w", pragma, err)
		}
	}
	return nil
}

func (p *Pool) migrate(migrations []string) error {
	conn, err := p.take(context.Background())
	if err != nil {
		return err
	}
	defer p.inner.Put(conn)

	current, err := schemaVersion(conn)
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("sqlitepool: %s has schema version %d, newer than the %d this build knows", p.path, current, len(migrations))
	}
	for version := current; version < len(migrations); version++ {
		if err := applyMigration(conn, migrations[version], version+1); err != nil {
			return fmt.Errorf("sqlitepool: %s: migrating to schema version %d: %w", p.path, version+1, err)
		}
	}
	if current < len(migrations) {
		p.logger.Info("sqlite schema migrated", "path", p.path, "from", current, "to", len(migrations))
	}
	return nil
}

func applyMigration(conn *sqlite.Conn, script string, version int) (err error) {
	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return err
	}
	defer end(&err)
	if err := sqlitex.ExecuteScript(conn, script, nil); err != nil {
		return err
	}
	return sqlitex.ExecuteTransient(conn, fmt.Sprintf("PRAGMA user_version = %d", version), nil)
}

func schemaVersion(conn *sqlite.Conn) (int, error) {
	var version int
	err := sqlitex.ExecuteTransient(conn, "PRAGMA user_version", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("sqlitepool: reading schema version: %w", err)
	}
	return version, nil
}

func (p *Pool) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: %s: %w", p.path, err)
	}
	return conn, nil
}

// Read runs fn with a borrowed connection. It blocks until a
// connection is free or ctx is done.
func (p *Pool) Read(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := p.take(ctx)
	if err != nil {
		return err
	}
	defer p.inner.Put(conn)
	return fn(conn)
}

// Write runs fn inside an immediate transaction, committing when fn
// returns nil and rolling back otherwise.
func (p *Pool) Write(ctx context.Context, fn func(conn *sqlite.Conn) error) (err error) {
	conn, err := p.take(ctx)
	if err != nil {
		return err
	}
	defer p.inner.Put(conn)

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitepool: %s: begin: %w", p.path, err)
	}
	defer end(&err)
	return fn(conn)
}

// Close closes every connection, waiting for borrowed ones to come
// back.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("sqlite database close failed", "path", p.path, "error", err)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Info("sqlite database closed", "path", p.path)
	return nil
}
