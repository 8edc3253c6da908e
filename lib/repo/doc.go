// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package repo is the storage side of the EdenAPI service: the narrow
// contract the batch resolvers query, and the implementations behind
// it.
//
// [Context] is a read-mostly handle on one named repository. Handlers
// acquire it once per request from a [Registry] and share it across
// every concurrent lookup in the batch, so implementations must be
// safe for concurrent use.
//
// Two implementations exist:
//
//   - [MemoryRepo] keeps everything in maps. Tests and local
//     development use it; it is also the reference for the contract
//     suite every implementation runs.
//   - [SQLiteRepo] persists changesets, filenodes, and content blobs in
//     a SQLite database opened through lib/sqlitepool. Blobs are stored
//     compressed (see [CompressionTag]) and addressed by a BLAKE3
//     [ContentID].
//
// Commit identity is split between the hash clients speak
// ([edenapi.HgID]) and the repository's own [ChangesetID]. The two
// currently share a representation; resolvers convert between them
// with [edenapi.MapDescendant] so a location descriptor is rewritten
// structurally rather than reinterpreted.
//
// The ancestry walk used by both implementations (first parents only,
// distance steps back from the descendant, then up to count hashes) is
// an implementation detail of this package. Callers depend only on
// ResolveAncestors returning at most count hashes, newest first.
package repo
