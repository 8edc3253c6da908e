// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR envelope used by the EdenAPI data
// service and its clients.
//
// Every request and response body is CBOR. Request bodies are a single
// CBOR data item (or, for uploads, a CBOR sequence per RFC 8742);
// streamed response bodies are always a CBOR sequence, one item per
// resolved batch entry, written as soon as each entry completes.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// decoder silently ignores map keys it does not know, which is what
// makes the numeric-tag wire format forward compatible: a newer client
// may send fields an older server has never heard of.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (HTTP bodies):
//
//	encoder := codec.NewEncoder(responseWriter)
//	items, err := codec.DecodeSequence[wire.UploadHgFilenodeRequest](body)
//
// # Struct Tag Rules
//
// Wire types use `cbor:"<n>,keyasint,omitempty"` tags exclusively. The
// integer n is the field's permanent wire tag; it is never renumbered
// or reused for a different field. Field names never appear on the
// wire. Types in lib/edenapi carry no tags at all: they are never
// serialized directly.
package codec
