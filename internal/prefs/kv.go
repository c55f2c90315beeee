// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package prefs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by KV.Get when the key has never been written.
var ErrNotFound = errors.New("prefs: key not found")

// KV is the generic persistence collaborator preferences round-trip
// through. Values are opaque JSON blobs.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// Keyspace prefix for preference entries in the shared Badger database.
const kvPrefix = "prefs:"

// BadgerKV implements KV on a BadgerDB handle. The handle is shared with
// the rest of the process; prefs entries live under their own key prefix.
type BadgerKV struct {
	db *badger.DB
}

// NewBadgerKV creates a Badger-backed KV store.
func NewBadgerKV(db *badger.DB) *BadgerKV {
	return &BadgerKV{db: db}
}

// Get retrieves the blob stored under key.
func (s *BadgerKV) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(kvPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores the blob under key, replacing any previous value.
func (s *BadgerKV) Set(key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(kvPrefix+key), value)
	})
}

// MemKV is an in-memory KV for tests. SetErr injects a persistence failure
// so callers can verify the swallow-and-log contract.
type MemKV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	setErr error
}

// NewMemKV creates an empty in-memory KV store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

// Get retrieves the blob stored under key.
func (s *MemKV) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores the blob under key, or fails with the injected error.
func (s *MemKV) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

// SetErr makes subsequent Set calls fail with err (nil restores writes).
func (s *MemKV) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}
