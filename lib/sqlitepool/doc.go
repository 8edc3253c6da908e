// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens repository databases: a fixed-size pool of
// zombiezen.com/go/sqlite connections with a versioned schema.
//
// Connections run in WAL mode, so lookups from a batch proceed in
// parallel while uploads serialize on the single writer. synchronous is
// NORMAL: a process crash loses nothing, a power failure may lose the
// last transactions. Repository databases are replicas and can be
// re-imported. busy_timeout gives writers five seconds before
// SQLITE_BUSY.
//
// The schema is a list of migration scripts. The database's
// user_version records how many have been applied; Open applies the
// rest and refuses a database written by a newer build.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:       filepath.Join(root, "fbsource.db"),
//	    Migrations: []string{schemaV1},
//	    Logger:     logger,
//	})
//	...
//	err = pool.Read(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, `SELECT revlog FROM changesets WHERE id = ?`, opts)
//	})
package sqlitepool
