// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jeranaias/switchboard/internal/util"
)

// FileStore keeps one file per key under BaseDir.
type FileStore struct {
	// BaseDir is the directory holding the value files.
	// Default: ~/.switchboard/store/
	BaseDir string
}

// NewFileStore creates a FileStore, making sure baseDir exists.
func NewFileStore(baseDir string) (*FileStore, error) {
	// Values may contain the API key.
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{BaseDir: baseDir}, nil
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, error) {
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

// Set implements Store.
func (s *FileStore) Set(key, value string) error {
	return util.AtomicWriteFile(s.filePath(key), []byte(value), 0600)
}

// Delete implements Store.
func (s *FileStore) Delete(key string) error {
	if err := os.Remove(s.filePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// filePath maps a key to its file. Keys are escaped so a key can never
// name a path outside BaseDir.
func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.BaseDir, url.PathEscape(key)+".json")
}
