// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolve holds the per-item lookups behind every batch
// endpoint. Each resolver takes one decoded request item and a shared
// [repo.Context], queries storage, and either returns the domain
// response for that item or fails with an error from this package's
// taxonomy:
//
//   - [*Error] wraps a storage failure (or a rejected upload) with the
//     [ErrorKind] naming the operation that failed.
//   - [*HgIDNotFoundError] and [*KeyNotFoundError] report that storage
//     answered and the requested commit or file does not exist. They
//     stay distinguishable from I/O failures so the HTTP layer can
//     answer 404 rather than 500.
//
// Resolvers never mutate the shared context except through
// [UploadFilenode], whose effect is a single filenode write.
//
// The *Tasks functions bind a batch of request items to a resolver and
// return a lazily evaluated task sequence for stream.BufferUnordered.
package resolve
