// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bayarmunkh/sapling/lib/edenapi"
	"github.com/bayarmunkh/sapling/lib/sqlitepool"
)

// migrations is the repository schema, one script per version.
//
// Hashes are stored as raw BLOBs. Blob columns (revlog bytes, content
// data) hold compressed bytes; the compression tag and uncompressed
// size sit beside them so reads can decompress and verify. Empty blobs
// may bind as NULL, so the payload columns are nullable and NULL reads
// back as empty.
var migrations = []string{`
CREATE TABLE changesets (
	id          BLOB PRIMARY KEY,
	p1          BLOB NOT NULL,
	p2          BLOB NOT NULL,
	compression INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	revlog      BLOB
) WITHOUT ROWID;

CREATE TABLE files (
	node          BLOB PRIMARY KEY,
	p1            BLOB NOT NULL,
	p2            BLOB NOT NULL,
	content_id    BLOB NOT NULL,
	copy_metadata BLOB,
	flags         INTEGER
) WITHOUT ROWID;

CREATE TABLE contents (
	id          BLOB PRIMARY KEY,
	compression INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	data        BLOB
) WITHOUT ROWID;
`}

// SQLiteConfig holds the parameters for opening a SQLite-backed
// repository.
type SQLiteConfig struct {
	// Name is the repository name reported by Name.
	Name string

	// Path is the database file. The parent directory must exist; the
	// file is created if missing.
	Path string

	// PoolSize is passed to sqlitepool. Zero selects its default.
	PoolSize int

	// Compression is the preferred algorithm for newly stored blobs.
	// Existing blobs keep whatever tag they were written with.
	Compression CompressionTag

	// Logger receives pool lifecycle messages. Required.
	Logger *slog.Logger
}

// SQLiteRepo is a [Store] persisted in a SQLite database.
type SQLiteRepo struct {
	name        string
	pool        *sqlitepool.Pool
	compression CompressionTag
	logger      *slog.Logger
	closed      atomic.Bool
}

var _ Store = (*SQLiteRepo)(nil)

// OpenSQLite opens (creating if necessary) a repository database. The
// caller must call Close when done.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteRepo, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("sqlite repo: Name is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("sqlite repo %s: Logger is required", cfg.Name)
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:       cfg.Path,
		Size:       cfg.PoolSize,
		Migrations: migrations,
		Logger:     cfg.Logger.With("repo", cfg.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite repo %s: %w", cfg.Name, err)
	}

	return &SQLiteRepo{
		name:        cfg.Name,
		pool:        pool,
		compression: cfg.Compression,
		logger:      cfg.Logger,
	}, nil
}

// Close closes the connection pool. Blocks until borrowed connections
// are returned. Calling Close more than once is a no-op.
func (r *SQLiteRepo) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.pool.Close()
}

func (r *SQLiteRepo) Name() string { return r.name }

// read borrows a connection for the duration of fn.
func (r *SQLiteRepo) read(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	if r.closed.Load() {
		return fmt.Errorf("sqlite repo %s: %w", r.name, ErrClosed)
	}
	return r.pool.Read(ctx, fn)
}

// write runs fn in a transaction.
func (r *SQLiteRepo) write(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	if r.closed.Load() {
		return fmt.Errorf("sqlite repo %s: %w", r.name, ErrClosed)
	}
	return r.pool.Write(ctx, fn)
}

func (r *SQLiteRepo) ResolveAncestors(ctx context.Context, location edenapi.Location[ChangesetID], count uint64) ([]ChangesetID, error) {
	var ancestors []ChangesetID
	err := r.read(ctx, func(conn *sqlite.Conn) error {
		// One connection serves the whole walk so a long history does
		// not churn the pool.
		firstParent := func(_ context.Context, id ChangesetID) (ChangesetID, bool, error) {
			var (
				parent ChangesetID
				found  bool
			)
			err := sqlitex.Execute(conn, `SELECT p1 FROM changesets WHERE id = ?`, &sqlitex.ExecOptions{
				Args: []any{id[:]},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					found = true
					return readHash(stmt, 0, parent[:])
				},
			})
			if err != nil {
				return ChangesetID{}, false, fmt.Errorf("sqlite repo %s: reading changeset %s: %w", r.name, id, err)
			}
			return parent, found, nil
		}
		var err error
		ancestors, err = walkAncestors(ctx, location, count, firstParent)
		return err
	})
	return ancestors, err
}

func (r *SQLiteRepo) FetchLegacyCommitBytes(ctx context.Context, id ChangesetID) ([]byte, bool, error) {
	var (
		revlog []byte
		found  bool
	)
	err := r.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT compression, size, revlog FROM changesets WHERE id = ?`, &sqlitex.ExecOptions{
			Args: []any{id[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				var err error
				revlog, err = readBlob(stmt, 0, 1, 2)
				return err
			},
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("fetching revlog data for %s: %w", id, err)
	}
	return revlog, found, nil
}

func (r *SQLiteRepo) FetchFile(ctx context.Context, node edenapi.HgID) (FileRecord, bool, error) {
	var (
		record FileRecord
		found  bool
	)
	err := r.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT p1, p2, content_id, copy_metadata, flags FROM files WHERE node = ?`, &sqlitex.ExecOptions{
			Args: []any{node[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				record.Node = node
				if err := readHash(stmt, 0, record.Parents.P1[:]); err != nil {
					return err
				}
				if err := readHash(stmt, 1, record.Parents.P2[:]); err != nil {
					return err
				}
				if err := readHash(stmt, 2, record.Content[:]); err != nil {
					return err
				}
				if length := stmt.ColumnLen(3); length > 0 {
					record.CopyMetadata = make([]byte, length)
					stmt.ColumnBytes(3, record.CopyMetadata)
				}
				if !stmt.ColumnIsNull(4) {
					flags := uint64(stmt.ColumnInt64(4))
					record.Flags = &flags
				}
				return nil
			},
		})
	})
	if err != nil {
		return FileRecord{}, false, fmt.Errorf("fetching filenode %s: %w", node, err)
	}
	return record, found, nil
}

func (r *SQLiteRepo) HasContent(ctx context.Context, id ContentID) (bool, error) {
	var found bool
	err := r.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT 1 FROM contents WHERE id = ?`, &sqlitex.ExecOptions{
			Args: []any{id[:]},
			ResultFunc: func(*sqlite.Stmt) error {
				found = true
				return nil
			},
		})
	})
	if err != nil {
		return false, fmt.Errorf("checking content %s: %w", id, err)
	}
	return found, nil
}

func (r *SQLiteRepo) FetchContent(ctx context.Context, id ContentID) ([]byte, bool, error) {
	var (
		data  []byte
		found bool
	)
	err := r.read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT compression, size, data FROM contents WHERE id = ?`, &sqlitex.ExecOptions{
			Args: []any{id[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				var err error
				data, err = readBlob(stmt, 0, 1, 2)
				return err
			},
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("fetching content %s: %w", id, err)
	}
	return data, found, nil
}

func (r *SQLiteRepo) StoreFilenode(ctx context.Context, record FileRecord) error {
	var flags any
	if record.Flags != nil {
		flags = int64(*record.Flags)
	}
	err := r.write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT OR REPLACE INTO files (node, p1, p2, content_id, copy_metadata, flags)
			VALUES (?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				record.Node[:],
				record.Parents.P1[:],
				record.Parents.P2[:],
				record.Content[:],
				record.CopyMetadata,
				flags,
			},
		})
	})
	if err != nil {
		return fmt.Errorf("storing filenode %s: %w", record.Node, err)
	}
	return nil
}

func (r *SQLiteRepo) StoreContent(ctx context.Context, data []byte) (ContentID, error) {
	id := ContentIDOf(data)
	stored, tag, err := compressBlob(data, r.compression)
	if err != nil {
		return id, fmt.Errorf("storing content %s: %w", id, err)
	}
	err = r.write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT OR IGNORE INTO contents (id, compression, size, data)
			VALUES (?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{id[:], int(tag), len(data), stored},
		})
	})
	if err != nil {
		return id, fmt.Errorf("storing content %s: %w", id, err)
	}
	return id, nil
}

func (r *SQLiteRepo) StoreChangeset(ctx context.Context, changeset Changeset) error {
	stored, tag, err := compressBlob(changeset.Revlog, r.compression)
	if err != nil {
		return fmt.Errorf("storing changeset %s: %w", changeset.ID, err)
	}
	err = r.write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT OR REPLACE INTO changesets (id, p1, p2, compression, size, revlog)
			VALUES (?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				changeset.ID[:],
				changeset.Parents.P1[:],
				changeset.Parents.P2[:],
				int(tag),
				len(changeset.Revlog),
				stored,
			},
		})
	})
	if err != nil {
		return fmt.Errorf("storing changeset %s: %w", changeset.ID, err)
	}
	return nil
}

// readHash copies a fixed-size hash column into destination,
// rejecting stored values of the wrong length.
func readHash(stmt *sqlite.Stmt, column int, destination []byte) error {
	if length := stmt.ColumnLen(column); length != len(destination) {
		return fmt.Errorf("column %d holds %d bytes, want %d", column, length, len(destination))
	}
	stmt.ColumnBytes(column, destination)
	return nil
}

// readBlob reads a compressed blob given the columns holding its
// compression tag, uncompressed size, and stored bytes. The result is
// never nil, so stored empty blobs stay distinguishable from absent
// ones.
func readBlob(stmt *sqlite.Stmt, tagColumn, sizeColumn, dataColumn int) ([]byte, error) {
	stored := make([]byte, stmt.ColumnLen(dataColumn))
	stmt.ColumnBytes(dataColumn, stored)
	return decompressBlob(stored, CompressionTag(stmt.ColumnInt(tagColumn)), stmt.ColumnInt(sizeColumn))
}
