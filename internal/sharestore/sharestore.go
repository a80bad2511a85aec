//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

// Package sharestore implements the ShareStore state machine: the single
// process-wide guardian of salusd's master key. It mirrors the
// original_source Rust ShareStore (salusd/src/store/mod.rs) operation by
// operation, but its concurrency model follows the teacher's Go idiom —
// a sync.Mutex-guarded singleton (app/keeper/internal/state/shard.go)
// instead of redb's Arc<Mutex<Database>> — and it zeroizes the master
// key through internal/zero the way the teacher zeroizes shards via
// spike-sdk-go/security/mem.
package sharestore

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"sync"

	"github.com/salusd/salusd/internal/seal"
	"github.com/salusd/salusd/internal/shamir"
	"github.com/salusd/salusd/internal/store"
	"github.com/salusd/salusd/internal/zero"
)

func fillRandom(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	return err
}

// DefaultNumShares and DefaultThreshold are used when GenShares runs
// before Initialize has recorded an explicit N/T pair.
const (
	DefaultNumShares = 5
	DefaultThreshold = 3
)

// Sentinel errors surfaced to the handler layer.
var (
	ErrAlreadyInitialized = errors.New("sharestore: already initialized")
	ErrStoreNotUnlocked   = errors.New("sharestore: store is locked")
	ErrKeyNotFound        = errors.New("sharestore: key not found")
	ErrCheckKeyMissing    = errors.New("sharestore: CHECK_KEY row missing")
)

// ShareStore holds the in-memory master key and pending share buffer for
// a single daemon process. All exported methods are safe for concurrent
// use by multiple connection-handling goroutines.
type ShareStore struct {
	mu     sync.Mutex
	shares []string
	key    [32]byte
	have   bool
	db     *store.Store
}

// New wraps db in a ShareStore with empty in-memory state. The
// persistent initialization flag lives in db, not here, so a restarted
// daemon picks its INITIALIZED/NUM_SHARES/THRESHOLD values back up from
// disk but always starts Locked — the master key never survives a
// restart.
func New(db *store.Store) *ShareStore {
	return &ShareStore{db: db}
}

// Initialize records the requested share count and threshold. It does
// not touch INITIALIZED and never fails on repeated calls — GenShares is
// what actually guards against re-initialization.
func (s *ShareStore) Initialize(ctx context.Context, numShares, threshold uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.SetConfig(ctx, store.ConfigNumShares, []byte{numShares}); err != nil {
		return err
	}
	return s.db.SetConfig(ctx, store.ConfigThreshold, []byte{threshold})
}

// GenShares generates a fresh 32-byte master key, splits it into the
// configured N/T shares, seals the CHECK_KEY sentinel under the new key,
// and atomically persists INITIALIZED=true, the config, and the sealed
// CHECK_KEY row. Returns ErrAlreadyInitialized (not an error the caller
// should treat as fatal) if the daemon was already initialized.
func (s *ShareStore) GenShares(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	initialized, err := s.isInitializedLocked(ctx)
	if err != nil {
		return nil, err
	}
	if initialized {
		return nil, ErrAlreadyInitialized
	}

	numShares := s.configByteOrDefaultLocked(ctx, store.ConfigNumShares, DefaultNumShares)
	threshold := s.configByteOrDefaultLocked(ctx, store.ConfigThreshold, DefaultThreshold)

	var key [32]byte
	if err := fillRandom(key[:]); err != nil {
		return nil, err
	}

	shares, err := shamir.Split(key[:], numShares, threshold-1)
	if err != nil {
		zero.Array32(&key)
		return nil, err
	}

	nonce, ciphertext, err := seal.Seal(key[:], []byte(store.CheckKey))
	if err != nil {
		zero.Array32(&key)
		return nil, err
	}

	err = s.db.InitializeAndSeal(ctx, numShares, threshold, store.StoredValue{
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})
	zero.Array32(&key)
	if err != nil {
		return nil, err
	}

	return shares, nil
}

// AddShare appends a raw share token to the in-memory buffer. It does
// not validate or deduplicate — Unlock is where a bad or insufficient
// share set gets caught.
func (s *ShareStore) AddShare(share string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares = append(s.shares, share)
}

// Unlock combines the buffered shares into a candidate master key,
// attempts to open the persisted CHECK_KEY ciphertext with it, and on
// success promotes the candidate to the live master key. Either way the
// share buffer is cleared. Returns (unlocked, error) — error is non-nil
// only for unexpected storage failures or ErrCheckKeyMissing (no
// CHECK_KEY row yet), not for a wrong or incomplete share set; those
// simply leave the store Locked.
func (s *ShareStore) Unlock(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.shares = nil }()

	candidate := shamir.Combine(s.shares)
	defer zero.Bytes(candidate)

	stored, err := s.db.GetValue(ctx, store.CheckKey)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrCheckKeyMissing
	}
	if err != nil {
		return false, err
	}

	plaintext, err := seal.Open(candidate, stored.Nonce, stored.Ciphertext)
	if err != nil || string(plaintext) != store.CheckKey {
		return false, nil
	}

	copy(s.key[:], candidate)
	s.have = true
	return true, nil
}

// Store seals value under the live master key and persists it. Requires
// the store to be Unlocked.
func (s *ShareStore) Store(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.have {
		return ErrStoreNotUnlocked
	}

	nonce, ciphertext, err := seal.Seal(s.key[:], []byte(value))
	if err != nil {
		return err
	}

	return s.db.PutValue(ctx, key, store.StoredValue{Nonce: nonce, Ciphertext: ciphertext})
}

// Read opens the persisted value at key under the live master key.
// Requires the store to be Unlocked. Returns ErrKeyNotFound if key has
// no row.
func (s *ShareStore) Read(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.have {
		return "", ErrStoreNotUnlocked
	}

	stored, err := s.db.GetValue(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}

	plaintext, err := seal.Open(s.key[:], stored.Nonce, stored.Ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GetThreshold reads the configured threshold, defaulting to
// DefaultThreshold if unset. Safe to call in any state.
func (s *ShareStore) GetThreshold(ctx context.Context) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configByteOrDefaultLocked(ctx, store.ConfigThreshold, DefaultThreshold)
}

// ClearKey zeroizes and drops the live master key, transitioning the
// store back to Locked. Idempotent.
func (s *ShareStore) ClearKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	zero.Array32(&s.key)
	s.have = false
}

// Unlocked reports whether a live master key is currently held.
func (s *ShareStore) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.have
}

func (s *ShareStore) isInitializedLocked(ctx context.Context) (bool, error) {
	v, err := s.db.GetConfig(ctx, store.ConfigInitialized)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(v) == 1 && v[0] != 0, nil
}

func (s *ShareStore) configByteOrDefaultLocked(ctx context.Context, key string, def uint8) uint8 {
	v, err := s.db.GetConfig(ctx, key)
	if err != nil || len(v) != 1 {
		return def
	}
	return v[0]
}
