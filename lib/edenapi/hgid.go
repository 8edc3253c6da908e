// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package edenapi

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// HgIDLength is the size in bytes of a Mercurial node hash.
const HgIDLength = 20

// HgID is a Mercurial node hash identifying a commit, a manifest, or a
// filenode.
type HgID [HgIDLength]byte

// NullID is the all-zero hash Mercurial uses for "no node".
var NullID HgID

// IsNull reports whether id is NullID.
func (id HgID) IsNull() bool {
	return id == NullID
}

// String returns the 40-character lower-case hex form.
func (id HgID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseHgID parses a 40-character hex string.
func ParseHgID(hexString string) (HgID, error) {
	var id HgID
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return id, fmt.Errorf("parsing hgid %q: %w", hexString, err)
	}
	if len(decoded) != HgIDLength {
		return id, fmt.Errorf("hgid %q is %d bytes, want %d", hexString, len(decoded), HgIDLength)
	}
	copy(id[:], decoded)
	return id, nil
}

// MustParseHgID is ParseHgID for constants in tests and fixtures.
func MustParseHgID(hexString string) HgID {
	id, err := ParseHgID(hexString)
	if err != nil {
		panic(err)
	}
	return id
}

// Parents is the (at most two) parent links of a commit or filenode.
// A null entry means the parent is absent. A well-formed Parents never
// has a second parent without a first.
type Parents struct {
	P1 HgID
	P2 HgID
}

// NewParents builds Parents from an unordered pair, moving a lone
// non-null parent into P1.
func NewParents(p1, p2 HgID) Parents {
	if p1.IsNull() {
		return Parents{P1: p2}
	}
	return Parents{P1: p1, P2: p2}
}

// Valid reports whether the second parent is only set alongside the
// first.
func (p Parents) Valid() bool {
	return p.P2.IsNull() || !p.P1.IsNull()
}

// Count returns the number of non-null parents.
func (p Parents) Count() int {
	switch {
	case p.P1.IsNull():
		return 0
	case p.P2.IsNull():
		return 1
	default:
		return 2
	}
}

// FilenodeID computes the Mercurial filenode hash: SHA-1 over the two
// parent hashes in sorted order followed by the file revision bytes
// (which include any copy-metadata header).
func FilenodeID(parents Parents, content []byte) HgID {
	low, high := parents.P1, parents.P2
	if bytes.Compare(low[:], high[:]) > 0 {
		low, high = high, low
	}
	hasher := sha1.New()
	hasher.Write(low[:])
	hasher.Write(high[:])
	hasher.Write(content)

	var id HgID
	copy(id[:], hasher.Sum(nil))
	return id
}
