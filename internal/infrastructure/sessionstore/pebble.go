// Package sessionstore persists the wallet session flag in a local Pebble
// database so "was connected" survives process restarts.
package sessionstore

import (
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"

	"lumera_wallet/internal/app/port"
	"lumera_wallet/internal/domain/entity"
)

// Keys of the two durable values. Prefixed so unrelated state can share the
// database later.
const (
	keyConnected = "session:connected"
	keyAddress   = "session:address"
)

// PebbleStore implements port.SessionStore on a Pebble key/value database.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (creating if needed) the database at path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session store directory: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

var _ port.SessionStore = (*PebbleStore)(nil)

// LoadFlag reads the persisted flag; a store never written returns the zero flag.
func (s *PebbleStore) LoadFlag() (entity.PersistedFlag, error) {
	connected, err := s.get(keyConnected)
	if err != nil {
		return entity.PersistedFlag{}, err
	}
	address, err := s.get(keyAddress)
	if err != nil {
		return entity.PersistedFlag{}, err
	}
	return entity.PersistedFlag{
		WasConnected: string(connected) == "true",
		LastAddress:  string(address),
	}, nil
}

// SaveFlag durably writes both values in one batch.
func (s *PebbleStore) SaveFlag(flag entity.PersistedFlag) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	connected := "false"
	if flag.WasConnected {
		connected = "true"
	}
	if err := batch.Set([]byte(keyConnected), []byte(connected), nil); err != nil {
		return err
	}
	if err := batch.Set([]byte(keyAddress), []byte(flag.LastAddress), nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to persist session flag: %w", err)
	}
	return nil
}

// ClearFlag removes both values. Clearing an empty store is harmless.
func (s *PebbleStore) ClearFlag() error {
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete([]byte(keyConnected), nil); err != nil {
		return err
	}
	if err := batch.Delete([]byte(keyAddress), nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to clear session flag: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// get returns nil for missing keys; the value is copied because it is only
// valid until the closer is released.
func (s *PebbleStore) get(key string) ([]byte, error) {
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}
