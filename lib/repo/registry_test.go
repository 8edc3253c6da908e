// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bayarmunkh/sapling/lib/testutil"
)

func newTestRegistry(t *testing.T, cacheSize int, definitions ...Definition) *Registry {
	t.Helper()
	registry, err := NewRegistry(RegistryConfig{
		Repos:     definitions,
		CacheSize: cacheSize,
		Logger:    slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(func() { registry.Close() })
	return registry
}

func sqliteDefinition(t *testing.T, name string) Definition {
	return Definition{
		Name:        name,
		Backend:     BackendSQLite,
		Path:        filepath.Join(t.TempDir(), name+".db"),
		Compression: CompressionLZ4,
	}
}

func TestRegistryUnknownRepo(t *testing.T) {
	registry := newTestRegistry(t, 0)
	_, _, err := registry.Acquire(context.Background(), "nope")
	if !errors.Is(err, ErrUnknownRepo) {
		t.Errorf("error = %v, want ErrUnknownRepo", err)
	}
}

func TestRegistryMemoryBackendIsShared(t *testing.T) {
	name := testutil.UniqueID("mem")
	registry := newTestRegistry(t, 0, Definition{Name: name, Backend: BackendMemory})
	ctx := context.Background()

	first, release, err := registry.Acquire(ctx, name)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()
	if err := first.StoreFilenode(ctx, FileRecord{Node: [20]byte{0x01}}); err != nil {
		t.Fatalf("StoreFilenode: %v", err)
	}

	second, releaseSecond, err := registry.Acquire(ctx, name)
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	defer releaseSecond()
	if _, found, err := second.FetchFile(ctx, [20]byte{0x01}); err != nil || !found {
		t.Errorf("filenode stored through one acquisition not visible through another: found %v, err %v", found, err)
	}
	if second.Name() != name {
		t.Errorf("Name() = %q, want %q", second.Name(), name)
	}
}

func TestRegistryRegister(t *testing.T) {
	registry := newTestRegistry(t, 0)
	store := NewMemoryRepo(testutil.UniqueID("registered"))
	if err := registry.Register(store); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := registry.Register(store); err == nil {
		t.Error("registering the same name twice succeeded")
	}

	got, release, err := registry.Acquire(context.Background(), store.Name())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()
	if got != Context(store) {
		t.Error("Acquire returned a different store than was registered")
	}
}

func TestRegistryNames(t *testing.T) {
	registry := newTestRegistry(t, 0,
		Definition{Name: "zeta", Backend: BackendMemory},
		sqliteDefinition(t, "alpha"),
	)
	if diff := cmp.Diff([]string{"alpha", "zeta"}, registry.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name        string
		definitions []Definition
	}{
		{"empty name", []Definition{{Backend: BackendMemory}}},
		{"duplicate", []Definition{{Name: "a", Backend: BackendMemory}, {Name: "a", Backend: BackendMemory}}},
		{"sqlite without path", []Definition{{Name: "a", Backend: BackendSQLite}}},
		{"unknown backend", []Definition{{Name: "a", Backend: "postgres"}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewRegistry(RegistryConfig{Repos: test.definitions, Logger: slog.New(slog.DiscardHandler)})
			if err == nil {
				t.Error("NewRegistry accepted invalid definitions")
			}
		})
	}
}

func TestRegistrySQLiteSurvivesEviction(t *testing.T) {
	ctx := context.Background()
	first := sqliteDefinition(t, "first")
	second := sqliteDefinition(t, "second")
	registry := newTestRegistry(t, 1, first, second)

	held, release, err := registry.Acquire(ctx, "first")
	if err != nil {
		t.Fatalf("Acquire first: %v", err)
	}
	store := held.(Store)
	contentID, err := store.StoreContent(ctx, []byte("written before eviction"))
	if err != nil {
		t.Fatalf("StoreContent: %v", err)
	}

	// A cache of one: acquiring the second repository evicts the
	// first while it is still held.
	_, releaseSecond, err := registry.Acquire(ctx, "second")
	if err != nil {
		t.Fatalf("Acquire second: %v", err)
	}
	releaseSecond()

	data, found, err := held.FetchContent(ctx, contentID)
	if err != nil || !found {
		t.Fatalf("held repository unusable after eviction: found %v, err %v", found, err)
	}
	if !bytes.Equal(data, []byte("written before eviction")) {
		t.Errorf("content = %q", data)
	}

	release()
	release() // idempotent

	if _, _, err := held.FetchContent(ctx, contentID); !errors.Is(err, ErrClosed) {
		t.Errorf("evicted repository still open after final release: err = %v", err)
	}

	// Re-acquiring reopens the database with its data intact.
	reopened, releaseReopened, err := registry.Acquire(ctx, "first")
	if err != nil {
		t.Fatalf("re-Acquire first: %v", err)
	}
	defer releaseReopened()
	if has, err := reopened.HasContent(ctx, contentID); err != nil || !has {
		t.Errorf("content missing after reopen: has %v, err %v", has, err)
	}
}

func TestRegistryClose(t *testing.T) {
	registry := newTestRegistry(t, 0, sqliteDefinition(t, "db"))
	ctx := context.Background()

	held, release, err := registry.Acquire(ctx, "db")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := registry.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := registry.Acquire(ctx, "db"); !errors.Is(err, ErrClosed) {
		t.Errorf("Acquire after Close = %v, want ErrClosed", err)
	}

	// Still usable until released.
	if _, err := held.HasContent(ctx, ContentID{}); err != nil {
		t.Errorf("held repository closed before release: %v", err)
	}
	release()
	if _, err := held.HasContent(ctx, ContentID{}); !errors.Is(err, ErrClosed) {
		t.Errorf("repository not closed on release after registry Close: %v", err)
	}
}
