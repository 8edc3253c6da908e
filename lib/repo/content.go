// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

// ContentID is the BLAKE3 keyed hash of a file's bytes. Content
// upload tokens carry it as an [edenapi.IDKindContentID] identifier.
type ContentID [32]byte

// contentDomainKey separates content IDs from every other BLAKE3 use
// in the service (upload-token signatures use their own key). Changing
// it invalidates every stored content ID.
var contentDomainKey = [32]byte{
	's', 'a', 'p', 'l', 'i', 'n', 'g', '.', 'c', 'o', 'n', 't', 'e', 'n', 't', 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ContentIDOf computes the content ID of data.
func ContentIDOf(data []byte) ContentID {
	hasher, err := blake3.NewKeyed(contentDomainKey[:])
	if err != nil {
		panic("repo: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var id ContentID
	copy(id[:], hasher.Sum(nil))
	return id
}

// ContentIDFromAnyID extracts a content ID from a tagged identifier.
func ContentIDFromAnyID(id edenapi.AnyID) (ContentID, error) {
	var contentID ContentID
	if id.Kind != edenapi.IDKindContentID {
		return contentID, fmt.Errorf("identifier kind %s is not a content ID", id.Kind)
	}
	if len(id.Value) != len(contentID) {
		return contentID, fmt.Errorf("content ID is %d bytes, want %d", len(id.Value), len(contentID))
	}
	copy(contentID[:], id.Value)
	return contentID, nil
}

// AnyID wraps the content ID as a tagged identifier.
func (id ContentID) AnyID() edenapi.AnyID {
	return edenapi.ContentID(id)
}

func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseContentID parses a 64-character hex content ID.
func ParseContentID(text string) (ContentID, error) {
	var id ContentID
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return id, fmt.Errorf("parsing content ID: %w", err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("content ID is %d bytes, want %d", len(decoded), len(id))
	}
	copy(id[:], decoded)
	return id, nil
}
