// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package edenapi

import "fmt"

// IDKind identifies what an AnyID refers to. Values are protocol
// constants.
type IDKind uint8

const (
	IDKindNone          IDKind = 0
	IDKindContentID     IDKind = 1
	IDKindSha1          IDKind = 2
	IDKindSha256        IDKind = 3
	IDKindHgFilenodeID  IDKind = 4
	IDKindHgChangesetID IDKind = 5
)

// String returns the kind's name.
func (kind IDKind) String() string {
	switch kind {
	case IDKindNone:
		return "none"
	case IDKindContentID:
		return "content_id"
	case IDKindSha1:
		return "sha1"
	case IDKindSha256:
		return "sha256"
	case IDKindHgFilenodeID:
		return "hg_filenode_id"
	case IDKindHgChangesetID:
		return "hg_changeset_id"
	default:
		return fmt.Sprintf("unknown(%d)", kind)
	}
}

// Length returns the byte length of identifiers of this kind, and
// false for kinds this build does not recognize.
func (kind IDKind) Length() (int, bool) {
	switch kind {
	case IDKindNone:
		return 0, true
	case IDKindContentID, IDKindSha256:
		return 32, true
	case IDKindSha1, IDKindHgFilenodeID, IDKindHgChangesetID:
		return 20, true
	default:
		return 0, false
	}
}

// AnyID is an identifier of any of the kinds the upload protocol
// understands.
type AnyID struct {
	Kind  IDKind
	Value []byte
}

// ContentID returns an AnyID for a content-store identifier.
func ContentID(id [32]byte) AnyID {
	return AnyID{Kind: IDKindContentID, Value: id[:]}
}

// HgFilenodeAnyID returns an AnyID for a filenode hash.
func HgFilenodeAnyID(id HgID) AnyID {
	return AnyID{Kind: IDKindHgFilenodeID, Value: id[:]}
}

// UploadTokenData is the signed part of an upload token.
type UploadTokenData struct {
	ID AnyID
	// BubbleID scopes the token to an ephemeral commit bubble; zero
	// means the token refers to permanent storage.
	BubbleID uint64
}

// UploadToken is an opaque, server-signed reference to something the
// client uploaded earlier, so it never needs to send those bytes again.
type UploadToken struct {
	Data      UploadTokenData
	Signature []byte
}
