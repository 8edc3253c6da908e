// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the EdenAPI
// packages.
//
// [RequireReceive], [RequireSend], [RequireClosed], and
// [RequireNoReceive] encapsulate the timeout safety valve pattern
// (select with time.After fallback) so that individual tests do not
// need direct time.After calls. Tests of the concurrent batch pipeline
// and the HTTP server use them to wait for goroutines without sleeping.
//
// [WriteFile] places a fixture (config file, token secret, CBOR
// request body) in a per-test temporary directory and returns its
// path.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as repository names in a shared registry.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies on the rest of the module.
package testutil
