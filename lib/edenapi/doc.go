// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package edenapi defines the domain model of the EdenAPI data
// service: commit identifiers, file keys, file content, filenode
// uploads, and the request and response values of every endpoint.
//
// These are plain Go values with no serialization concerns. The
// over-the-wire representation lives in lib/edenapi/wire, which
// converts to and from these types and enforces the cross-field
// invariants the wire format cannot express. Every value here is
// transient: built when a request arrives or a storage lookup
// returns, dropped once the response is written.
package edenapi
