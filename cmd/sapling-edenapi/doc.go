// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command sapling-edenapi is the command-line client for
// sapling-edenapi-service.
//
// Query commands (location-to-hash, revlog-data, files) send one batch
// request, ask for zstd-compressed responses unless --no-compress is
// given, and print each result as it is decoded from the CBOR sequence
// response. An error the service reports in the X-Sapling-Stream-Error
// trailer after partial results is returned once the printed results
// are flushed, so the exit status is non-zero for an incomplete batch.
//
// upload stores local files through PUT /{repo}/upload/file and then
// records their filenodes in a single upload/filenodes batch. diag
// decodes captured request or response bodies for inspection.
package main
