// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package edenapitest generates arbitrary edenapi and wire values for
// property tests.
//
// NewFuzzer produces only well-formed domain values (parents
// normalized, identifiers of the right length for their kind,
// non-negative upload indexes), so that the domain round trip
// wire.FromX → ToAPI must reproduce its input. NewWireFuzzer produces
// arbitrary wire values, including ones ToAPI rejects, for binary
// encode/decode round trips.
package edenapitest

import (
	"math/rand"

	fuzz "github.com/google/gofuzz"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

// Iterations is the number of generated values property tests check
// per type.
const Iterations = 500

// knownKinds lists every IDKind a well-formed AnyID may carry.
var knownKinds = []edenapi.IDKind{
	edenapi.IDKindNone,
	edenapi.IDKindContentID,
	edenapi.IDKindSha1,
	edenapi.IDKindSha256,
	edenapi.IDKindHgFilenodeID,
	edenapi.IDKindHgChangesetID,
}

// NewFuzzer returns a deterministic generator of well-formed domain
// values.
func NewFuzzer(seed int64) *fuzz.Fuzzer {
	return fuzz.New().
		RandSource(rand.NewSource(seed)).
		NilChance(0.25).
		NumElements(0, 6).
		Funcs(
			func(id *edenapi.HgID, c fuzz.Continue) {
				*id = randomHgID(c)
			},
			func(parents *edenapi.Parents, c fuzz.Continue) {
				*parents = edenapi.NewParents(randomHgID(c), randomHgID(c))
			},
			func(id *edenapi.AnyID, c fuzz.Continue) {
				kind := knownKinds[c.Intn(len(knownKinds))]
				length, _ := kind.Length()
				value := make([]byte, length)
				c.Read(value)
				if length == 0 {
					value = nil
				}
				*id = edenapi.AnyID{Kind: kind, Value: value}
			},
			func(response *edenapi.UploadHgFilenodeResponse, c fuzz.Continue) {
				response.Index = c.Intn(1 << 20)
				c.Fuzz(&response.Token)
			},
		)
}

// NewWireFuzzer returns a deterministic generator of arbitrary wire
// values. Byte fields get arbitrary lengths, so many generated values
// fail ToAPI; that is the point.
func NewWireFuzzer(seed int64) *fuzz.Fuzzer {
	return fuzz.New().
		RandSource(rand.NewSource(seed)).
		NilChance(0.25).
		NumElements(0, 6).
		Funcs(
			// An optional blob is absent or present, possibly empty.
			// A present nil slice has no encoding of its own.
			func(data **[]byte, c fuzz.Continue) {
				if c.Intn(4) == 0 {
					*data = nil
					return
				}
				blob := make([]byte, c.Intn(8))
				c.Read(blob)
				*data = &blob
			},
		)
}

// randomHgID returns a random hash, null roughly one time in five so
// that elision of the null hash is exercised.
func randomHgID(c fuzz.Continue) edenapi.HgID {
	var id edenapi.HgID
	if c.Intn(5) == 0 {
		return id
	}
	c.Read(id[:])
	return id
}
