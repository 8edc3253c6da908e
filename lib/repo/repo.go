// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"context"
	"errors"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

var (
	// ErrNotFound reports that a changeset referenced by a request
	// (typically a location's descendant) does not exist.
	ErrNotFound = errors.New("repo: not found")

	// ErrInvalidLocation reports a location whose distance reaches past
	// the root of the history graph.
	ErrInvalidLocation = errors.New("repo: location is beyond the root of history")

	// ErrUnknownRepo is returned by Registry.Acquire for a name that is
	// not configured.
	ErrUnknownRepo = errors.New("repo: unknown repository")

	// ErrClosed is returned by operations on a repository whose
	// storage has been closed.
	ErrClosed = errors.New("repo: closed")
)

// ChangesetID is the repository's identifier for a commit. It shares
// its representation with the client-facing [edenapi.HgID]; the
// distinct type keeps the two from being mixed up at API boundaries.
type ChangesetID edenapi.HgID

// ChangesetIDFromHgID converts a client-facing commit hash.
func ChangesetIDFromHgID(id edenapi.HgID) ChangesetID { return ChangesetID(id) }

// HgID converts back to the client-facing hash.
func (id ChangesetID) HgID() edenapi.HgID { return edenapi.HgID(id) }

// IsNull reports whether id is the null changeset (no commit).
func (id ChangesetID) IsNull() bool { return edenapi.HgID(id).IsNull() }

func (id ChangesetID) String() string { return edenapi.HgID(id).String() }

// Changeset is one commit as stored: its identity, its parents, and
// the opaque legacy-format bytes served by revlog-data requests.
type Changeset struct {
	ID      ChangesetID
	Parents edenapi.Parents
	Revlog  []byte
}

// FileRecord is one stored filenode: a version of one file, linked to
// the content blob holding its bytes.
type FileRecord struct {
	Node    edenapi.HgID
	Parents edenapi.Parents

	// Content addresses the file's bytes in the content store.
	Content ContentID

	// CopyMetadata is the Mercurial copy-information header that
	// prefixes the file's bytes in the legacy blob format. Usually
	// empty.
	CopyMetadata []byte

	// Flags carries revisionstore flags (for example LFS pointer
	// markers). Nil when none were recorded.
	Flags *uint64
}

// Context is a handle on one repository, shared read-only by every
// concurrent lookup in a batch. Implementations must be safe for
// concurrent use.
type Context interface {
	// Name returns the repository name the context was acquired by.
	Name() string

	// ResolveAncestors returns up to count changeset IDs starting at
	// location, newest first. It fails with ErrNotFound if the
	// descendant does not exist and ErrInvalidLocation if the distance
	// walks past the root.
	ResolveAncestors(ctx context.Context, location edenapi.Location[ChangesetID], count uint64) ([]ChangesetID, error)

	// FetchLegacyCommitBytes returns the legacy-format bytes of a
	// changeset. A missing changeset is reported as found == false
	// with a nil error; err is reserved for storage failures.
	FetchLegacyCommitBytes(ctx context.Context, id ChangesetID) (data []byte, found bool, err error)

	// FetchFile returns the filenode with the given node hash.
	FetchFile(ctx context.Context, node edenapi.HgID) (record FileRecord, found bool, err error)

	// HasContent reports whether a content blob is stored.
	HasContent(ctx context.Context, id ContentID) (bool, error)

	// FetchContent returns the bytes of a content blob.
	FetchContent(ctx context.Context, id ContentID) (data []byte, found bool, err error)

	// StoreFilenode records a filenode. Storing the same node twice is
	// not an error; the later record wins.
	StoreFilenode(ctx context.Context, record FileRecord) error
}

// Store is a Context that can also be populated. Import tooling and
// tests write through it; the request handlers only see Context.
type Store interface {
	Context

	// StoreContent stores a blob and returns its content ID.
	StoreContent(ctx context.Context, data []byte) (ContentID, error)

	// StoreChangeset records a changeset.
	StoreChangeset(ctx context.Context, changeset Changeset) error
}

// HgFileBlob assembles the legacy file blob for record: the copy
// metadata header followed by the content bytes.
func HgFileBlob(record FileRecord, content []byte) []byte {
	blob := make([]byte, 0, len(record.CopyMetadata)+len(content))
	blob = append(blob, record.CopyMetadata...)
	return append(blob, content...)
}
