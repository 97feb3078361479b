// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/config"
)

var (
	// ErrStateNotFound is returned for unknown or already-consumed states.
	ErrStateNotFound = errors.New("oauth state not found")

	// ErrStateExpired is returned for states past their expiry.
	ErrStateExpired = errors.New("oauth state expired")
)

// stateBytes is the entropy of a generated state parameter.
const stateBytes = 32

// StateData is what a state parameter stands for.
type StateData struct {
	UserID    uuid.UUID `json:"user_id"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the state is past its expiry.
func (s *StateData) IsExpired() bool {
	return !time.Now().Before(s.ExpiresAt)
}

// StateStore persists one-time OAuth state parameters.
type StateStore interface {
	Store(ctx context.Context, key string, state *StateData) error
	// Consume returns and deletes the state in one step, so a state can be
	// redeemed at most once.
	Consume(ctx context.Context, key string) (*StateData, error)
	CleanupExpired(ctx context.Context) (int, error)
	Close() error
}

// GenerateState returns a URL-safe random state parameter.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewStateStore opens the backend selected by config.
func NewStateStore(cfg config.StateStoreConfig) (StateStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStateStore(), nil
	case "badger":
		return NewBadgerStateStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown state store backend %q", cfg.Backend)
	}
}

// MemoryStateStore keeps states in process memory.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]StateData
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]StateData)}
}

// Store saves state under key.
func (s *MemoryStateStore) Store(_ context.Context, key string, state *StateData) error {
	if key == "" {
		return errors.New("state key cannot be empty")
	}
	if state == nil {
		return errors.New("state data cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = *state
	return nil
}

// Consume returns and removes the state.
func (s *MemoryStateStore) Consume(_ context.Context, key string) (*StateData, error) {
	s.mu.Lock()
	state, ok := s.states[key]
	delete(s.states, key)
	s.mu.Unlock()

	if !ok {
		return nil, ErrStateNotFound
	}
	if state.IsExpired() {
		return nil, ErrStateExpired
	}
	return &state, nil
}

// CleanupExpired drops expired states.
func (s *MemoryStateStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, st := range s.states {
		if st.IsExpired() {
			delete(s.states, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored states.
func (s *MemoryStateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Close is a no-op.
func (s *MemoryStateStore) Close() error { return nil }

// BadgerStateStore implements StateStore using BadgerDB, so pending OAuth
// flows survive a restart. Entries carry a TTL matching ExpiresAt.
type BadgerStateStore struct {
	db     *badger.DB
	ownsDB bool
}

// State storage key prefix for namespacing in BadgerDB.
const badgerStateKeyPrefix = "oauth_state:"

// NewBadgerStateStore opens a BadgerDB at path.
func NewBadgerStateStore(path string) (*BadgerStateStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for oauth state: %w", err)
	}
	return &BadgerStateStore{db: db, ownsDB: true}, nil
}

// NewBadgerStateStoreFromDB wraps an existing BadgerDB. Close leaves it open.
func NewBadgerStateStoreFromDB(db *badger.DB) *BadgerStateStore {
	return &BadgerStateStore{db: db}
}

// Store saves state under key with a TTL.
func (s *BadgerStateStore) Store(_ context.Context, key string, state *StateData) error {
	if key == "" {
		return errors.New("state key cannot be empty")
	}
	if state == nil {
		return errors.New("state data cannot be nil")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(badgerStateKeyPrefix+key), data)
		if ttl := time.Until(state.ExpiresAt); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Consume reads and deletes the state in one transaction.
func (s *BadgerStateStore) Consume(_ context.Context, key string) (*StateData, error) {
	if key == "" {
		return nil, ErrStateNotFound
	}

	var state StateData
	err := s.db.Update(func(txn *badger.Txn) error {
		stateKey := []byte(badgerStateKeyPrefix + key)
		item, err := txn.Get(stateKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStateNotFound
		}
		if err != nil {
			return fmt.Errorf("get state: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		}); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
		return txn.Delete(stateKey)
	})
	if err != nil {
		return nil, err
	}

	// TTL normally hides expired keys; this covers clock skew at the boundary.
	if state.IsExpired() {
		return nil, ErrStateExpired
	}
	return &state, nil
}

// CleanupExpired removes expired or undecodable states and returns how many.
func (s *BadgerStateStore) CleanupExpired(_ context.Context) (int, error) {
	var expiredKeys [][]byte
	now := time.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerStateKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var state StateData
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &state)
			})
			if err != nil || !now.Before(state.ExpiresAt) {
				expiredKeys = append(expiredKeys, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan for expired states: %w", err)
	}

	count := 0
	for _, key := range expiredKeys {
		if err := s.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) }); err == nil {
			count++
		}
	}
	return count, nil
}

// Close closes the BadgerDB when the store opened it.
func (s *BadgerStateStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
