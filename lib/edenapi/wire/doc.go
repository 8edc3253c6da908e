// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire defines the over-the-wire form of every lib/edenapi
// type and the conversions between the two.
//
// Each wire type is a struct of integer-tagged CBOR fields. Tags are
// the compatibility contract:
//
//   - A tag, once assigned, belongs to its field forever. Removed
//     fields retire their tag; new fields take a fresh one.
//   - Every field is omitempty. A field holding its default value is
//     not encoded, and an absent field decodes to the default, so
//     "absent" and "default" are the same thing.
//   - Unknown tags are ignored on decode (see lib/codec).
//
// The one exception is UploadHgFilenodeResponse.Index, which is always
// encoded: index 0 is a real batch position.
//
// Conversions come in pairs. FromX turns an edenapi.X into its wire
// form and cannot fail. (X).ToAPI turns the wire form back into the
// domain value and fails with a *ConversionError when the wire value
// breaks an invariant the encoding cannot express, such as file data
// sent without its metadata. ToAPI never returns a partially built
// value alongside an error.
package wire
