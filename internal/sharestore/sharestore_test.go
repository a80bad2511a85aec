//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package sharestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/salusd/salusd/internal/store"
)

func newTestShareStore(t *testing.T) *ShareStore {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "salus.db")

	db, err := store.Open(ctx, path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func genAndTakeShares(t *testing.T, s *ShareStore, nShares int) []string {
	t.Helper()
	ctx := context.Background()
	shares, err := s.GenShares(ctx)
	if err != nil {
		t.Fatalf("GenShares: %v", err)
	}
	if len(shares) != DefaultNumShares {
		t.Fatalf("expected %d shares, got %d", DefaultNumShares, len(shares))
	}
	return shares[:nShares]
}

func TestGenSharesThenUnlockStoreRead(t *testing.T) {
	ctx := context.Background()
	s := newTestShareStore(t)

	shares := genAndTakeShares(t, s, DefaultThreshold)
	for _, sh := range shares {
		s.AddShare(sh)
	}

	unlocked, err := s.Unlock(ctx)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !unlocked {
		t.Fatal("expected unlock to succeed with threshold shares")
	}
	if !s.Unlocked() {
		t.Fatal("expected store to report Unlocked")
	}

	if err := s.Store(ctx, "hello", "world"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := s.Read(ctx, "hello")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "world" {
		t.Fatalf("got %q, want %q", got, "world")
	}
}

func TestUnlockWithTooFewSharesFails(t *testing.T) {
	ctx := context.Background()
	s := newTestShareStore(t)

	shares := genAndTakeShares(t, s, DefaultThreshold-1)
	for _, sh := range shares {
		s.AddShare(sh)
	}

	unlocked, err := s.Unlock(ctx)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if unlocked {
		t.Fatal("expected unlock to fail with sub-threshold shares")
	}
	if s.Unlocked() {
		t.Fatal("store should remain locked")
	}
}

func TestStoreRequiresUnlock(t *testing.T) {
	ctx := context.Background()
	s := newTestShareStore(t)
	genAndTakeShares(t, s, DefaultThreshold)

	if err := s.Store(ctx, "k", "v"); err != ErrStoreNotUnlocked {
		t.Fatalf("expected ErrStoreNotUnlocked, got %v", err)
	}
	if _, err := s.Read(ctx, "k"); err != ErrStoreNotUnlocked {
		t.Fatalf("expected ErrStoreNotUnlocked, got %v", err)
	}
}

func TestGenSharesTwiceIsAlreadyInitialized(t *testing.T) {
	ctx := context.Background()
	s := newTestShareStore(t)
	genAndTakeShares(t, s, DefaultThreshold)

	_, err := s.GenShares(ctx)
	if err != ErrAlreadyInitialized {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestReadMissingKeyNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestShareStore(t)
	shares := genAndTakeShares(t, s, DefaultThreshold)
	for _, sh := range shares {
		s.AddShare(sh)
	}
	if _, err := s.Unlock(ctx); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	if _, err := s.Read(ctx, "missing"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestClearKeyLocksStore(t *testing.T) {
	ctx := context.Background()
	s := newTestShareStore(t)
	shares := genAndTakeShares(t, s, DefaultThreshold)
	for _, sh := range shares {
		s.AddShare(sh)
	}
	if _, err := s.Unlock(ctx); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	s.ClearKey()
	if s.Unlocked() {
		t.Fatal("expected store to be locked after ClearKey")
	}
	if _, err := s.Read(ctx, "hello"); err != ErrStoreNotUnlocked {
		t.Fatalf("expected ErrStoreNotUnlocked after ClearKey, got %v", err)
	}
}

func TestGetThresholdDefaultsWithoutInitialize(t *testing.T) {
	ctx := context.Background()
	s := newTestShareStore(t)
	if got := s.GetThreshold(ctx); got != DefaultThreshold {
		t.Fatalf("got %d, want %d", got, DefaultThreshold)
	}
}

func TestInitializeOverridesShareCountAndThreshold(t *testing.T) {
	ctx := context.Background()
	s := newTestShareStore(t)

	if err := s.Initialize(ctx, 7, 4); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := s.GetThreshold(ctx); got != 4 {
		t.Fatalf("got %d, want %d", got, 4)
	}

	shares, err := s.GenShares(ctx)
	if err != nil {
		t.Fatalf("GenShares: %v", err)
	}
	if len(shares) != 7 {
		t.Fatalf("expected 7 shares, got %d", len(shares))
	}
}
