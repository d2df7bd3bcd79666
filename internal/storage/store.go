// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a string key-value store.
//
// Get returns ErrNotFound for a missing key. Delete of a missing key is not
// an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// sqliteFileName is the database file used by the sqlite backend.
const sqliteFileName = "switchboard.db"

// Open creates the store for backend rooted at dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(filepath.Join(dataDir, "store"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dataDir, sqliteFileName))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// =============================================================================
// TYPED HELPERS
// =============================================================================

// Save JSON-encodes value and stores it under key.
func Save[T any](s Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load decodes the JSON value stored under key.
// A missing key returns ErrNotFound; a value that does not decode returns an
// error wrapping ErrCorrupt.
func Load[T any](s Store, key string) (T, error) {
	var value T
	raw, err := s.Get(key)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return value, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return value, nil
}

// LoadOr is Load with a fallback for missing or undecodable values.
func LoadOr[T any](s Store, key string, fallback T) T {
	value, err := Load[T](s, key)
	if err != nil {
		return fallback
	}
	return value
}

// Delete removes key from the store.
func Delete(s Store, key string) error {
	if err := s.Delete(key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Has reports whether key currently holds a value.
func Has(s Store, key string) bool {
	_, err := s.Get(key)
	return err == nil
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a key holds no value.
	ErrNotFound = errors.New("key not found")

	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("stored value is corrupt")
)
