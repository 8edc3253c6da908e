// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sapling-edenapi-service serves the EdenAPI batch endpoints over
// HTTP for the repositories named in its configuration.
//
// Every batch endpoint takes a CBOR request, resolves its items
// concurrently (at most server.max_concurrent_fetches at a time) and
// streams the results back as a CBOR sequence in completion order.
// Routes:
//
//	GET  /health_check
//	GET  /repos
//	POST /{repo}/commit/location_to_hash
//	POST /{repo}/commit/revlog_data
//	POST /{repo}/files
//	PUT  /{repo}/upload/file
//	POST /{repo}/upload/filenodes
//
// An error on the first item of a batch becomes the HTTP status (404
// for unknown hashes and keys, 400 for invalid input, 500 otherwise).
// An error after results have been sent ends the stream and is
// reported in the X-Sapling-Stream-Error trailer.
//
// Usage:
//
//	sapling-edenapi-service --config /etc/sapling/edenapi.yaml
package main
