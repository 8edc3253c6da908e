// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"bytes"
	"context"
	"sync"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

// MemoryRepo is an in-memory [Store]. It is safe for concurrent use.
// Returned byte slices are copies; callers may modify them.
type MemoryRepo struct {
	name string

	mu         sync.RWMutex
	changesets map[ChangesetID]Changeset
	files      map[edenapi.HgID]FileRecord
	contents   map[ContentID][]byte
}

// NewMemoryRepo returns an empty repository.
func NewMemoryRepo(name string) *MemoryRepo {
	return &MemoryRepo{
		name:       name,
		changesets: make(map[ChangesetID]Changeset),
		files:      make(map[edenapi.HgID]FileRecord),
		contents:   make(map[ContentID][]byte),
	}
}

var _ Store = (*MemoryRepo)(nil)

func (r *MemoryRepo) Name() string { return r.name }

func (r *MemoryRepo) ResolveAncestors(ctx context.Context, location edenapi.Location[ChangesetID], count uint64) ([]ChangesetID, error) {
	return walkAncestors(ctx, location, count, r.firstParent)
}

func (r *MemoryRepo) firstParent(_ context.Context, id ChangesetID) (ChangesetID, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	changeset, ok := r.changesets[id]
	if !ok {
		return ChangesetID{}, false, nil
	}
	return ChangesetID(changeset.Parents.P1), true, nil
}

func (r *MemoryRepo) FetchLegacyCommitBytes(_ context.Context, id ChangesetID) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	changeset, ok := r.changesets[id]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(changeset.Revlog), true, nil
}

func (r *MemoryRepo) FetchFile(_ context.Context, node edenapi.HgID) (FileRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.files[node]
	if !ok {
		return FileRecord{}, false, nil
	}
	return cloneFileRecord(record), true, nil
}

func (r *MemoryRepo) HasContent(_ context.Context, id ContentID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.contents[id]
	return ok, nil
}

func (r *MemoryRepo) FetchContent(_ context.Context, id ContentID) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.contents[id]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(data), true, nil
}

func (r *MemoryRepo) StoreFilenode(_ context.Context, record FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[record.Node] = cloneFileRecord(record)
	return nil
}

func (r *MemoryRepo) StoreContent(_ context.Context, data []byte) (ContentID, error) {
	id := ContentIDOf(data)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contents[id]; !ok {
		// Non-nil even for empty content so FetchContent can tell
		// "stored empty" from "absent".
		r.contents[id] = append([]byte{}, data...)
	}
	return id, nil
}

func (r *MemoryRepo) StoreChangeset(_ context.Context, changeset Changeset) error {
	changeset.Revlog = bytes.Clone(changeset.Revlog)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changesets[changeset.ID] = changeset
	return nil
}

func cloneFileRecord(record FileRecord) FileRecord {
	record.CopyMetadata = bytes.Clone(record.CopyMetadata)
	if record.Flags != nil {
		flags := *record.Flags
		record.Flags = &flags
	}
	return record
}
