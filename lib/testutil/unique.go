// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now() when
// tests need unique identifiers for repository names, file paths, or
// fixtures that must not collide across tests.
//
//	repoName := testutil.UniqueID("repo")  // "repo-1", "repo-2", ...
//	path := testutil.UniqueID("dir/file")  // "dir/file-3", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
