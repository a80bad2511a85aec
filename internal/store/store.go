//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

// Package store is salusd's persistent layer: a single SQLite file with
// a config table (initialization state, share count, threshold) and a
// value table (nonce + ciphertext per key, including the reserved
// CHECK_KEY sentinel). It is grounded on the teacher's
// app/nexus/internal/state/backend/sqlite backend — same
// database/sql + mattn/go-sqlite3 stack, same transaction-with-
// committed-flag idiom — generalized to the two flat tables salusd
// actually needs instead of secrets/versions/admin_token.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Config keys held in the salus_config table.
const (
	ConfigInitialized = "INITIALIZED"
	ConfigNumShares   = "NUM_SHARES"
	ConfigThreshold   = "THRESHOLD"
)

// CheckKey is the reserved value-table key salusd seals on GenShares and
// re-opens on Unlock to verify a quorum of shares was supplied.
const CheckKey = "CHECK_KEY"

// ErrNotFound is returned by GetConfig and GetValue when the requested
// key has no row.
var ErrNotFound = errors.New("store: key not found")

// StoredValue is one row of the value table.
type StoredValue struct {
	Nonce      []byte
	Ciphertext []byte
}

// Store wraps the daemon's SQLite connection.
type Store struct {
	db        *sql.DB
	mu        sync.Mutex
	closeOnce sync.Once
}

// Open creates the data directory if needed, opens (or creates) the
// SQLite file at path, and ensures both tables exist.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("store: failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS salus_config (
			key   TEXT PRIMARY KEY,
			value BLOB
		);

		CREATE TABLE IF NOT EXISTS salus_store (
			key        TEXT PRIMARY KEY,
			nonce      BLOB NOT NULL,
			ciphertext BLOB NOT NULL
		);
	`)
	return err
}

// Close closes the underlying database connection. Safe to call more
// than once.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}

// GetConfig reads a single config value. Returns ErrNotFound if absent.
func (s *Store) GetConfig(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM salus_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to read config %q: %w", key, err)
	}
	return value, nil
}

// SetConfig upserts a single config value.
func (s *Store) SetConfig(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salus_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("store: failed to write config %q: %w", key, err)
	}
	return nil
}

// GetValue reads a single value-table row. Returns ErrNotFound if absent.
func (s *Store) GetValue(ctx context.Context, key string) (StoredValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v StoredValue
	err := s.db.QueryRowContext(ctx,
		`SELECT nonce, ciphertext FROM salus_store WHERE key = ?`, key,
	).Scan(&v.Nonce, &v.Ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredValue{}, ErrNotFound
	}
	if err != nil {
		return StoredValue{}, fmt.Errorf("store: failed to read value %q: %w", key, err)
	}
	return v, nil
}

// PutValue upserts a single value-table row.
func (s *Store) PutValue(ctx context.Context, key string, v StoredValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salus_store (key, nonce, ciphertext) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET nonce = excluded.nonce, ciphertext = excluded.ciphertext
	`, key, v.Nonce, v.Ciphertext)
	if err != nil {
		return fmt.Errorf("store: failed to write value %q: %w", key, err)
	}
	return nil
}

// InitializeAndSeal runs the GenShares commit atomically: it records N and
// T and INITIALIZED=true in the config table and writes the CHECK_KEY row
// in the value table, all inside one transaction, so a crash mid-way
// never leaves a half-initialized daemon.
func (s *Store) InitializeAndSeal(ctx context.Context, numShares, threshold uint8, checkKey StoredValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}

	committed := false
	defer func(tx *sql.Tx) {
		if !committed {
			_ = tx.Rollback()
		}
	}(tx)

	upsertConfig := func(key string, value []byte) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO salus_config (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return err
	}

	if err := upsertConfig(ConfigNumShares, []byte{numShares}); err != nil {
		return fmt.Errorf("store: failed to write num_shares: %w", err)
	}
	if err := upsertConfig(ConfigThreshold, []byte{threshold}); err != nil {
		return fmt.Errorf("store: failed to write threshold: %w", err)
	}
	if err := upsertConfig(ConfigInitialized, []byte{1}); err != nil {
		return fmt.Errorf("store: failed to write initialized flag: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO salus_store (key, nonce, ciphertext) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET nonce = excluded.nonce, ciphertext = excluded.ciphertext
	`, CheckKey, checkKey.Nonce, checkKey.Ciphertext)
	if err != nil {
		return fmt.Errorf("store: failed to write check key: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}
