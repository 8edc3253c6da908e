// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"context"
	"fmt"

	"github.com/bayarmunkh/sapling/lib/edenapi"
)

// firstParentFunc looks up a changeset's first parent. found is false
// when the changeset does not exist.
type firstParentFunc func(ctx context.Context, id ChangesetID) (parent ChangesetID, found bool, err error)

// walkAncestors implements ResolveAncestors for both stores: step
// location.Distance first parents back from the descendant, then
// collect up to count changesets following first parents. The walk
// stops early at the root, so fewer than count IDs may come back.
func walkAncestors(ctx context.Context, location edenapi.Location[ChangesetID], count uint64, firstParent firstParentFunc) ([]ChangesetID, error) {
	current := location.Descendant
	if current.IsNull() {
		return nil, fmt.Errorf("resolving %s: descendant is the null changeset: %w", current, ErrNotFound)
	}

	// Every step (including the first) verifies that the changeset
	// exists, so a dangling parent pointer surfaces as ErrNotFound
	// rather than a silently short answer.
	for step := uint64(0); step < location.Distance; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parent, found, err := firstParent(ctx, current)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("resolving %s: %w", current, ErrNotFound)
		}
		if parent.IsNull() {
			return nil, fmt.Errorf("%s is %d steps from the root, location asks for %d: %w",
				location.Descendant, step, location.Distance, ErrInvalidLocation)
		}
		current = parent
	}

	ancestors := make([]ChangesetID, 0, min(count, 1024))
	for uint64(len(ancestors)) < count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parent, found, err := firstParent(ctx, current)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("resolving %s: %w", current, ErrNotFound)
		}
		ancestors = append(ancestors, current)
		if parent.IsNull() {
			break
		}
		current = parent
	}
	return ancestors, nil
}
