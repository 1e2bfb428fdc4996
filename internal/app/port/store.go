package port

import "lumera_wallet/internal/domain/entity"

// SessionStore persists the "was connected" flag and the last known address
// across process restarts. Writes are last-writer-wins and idempotent.
type SessionStore interface {
	// LoadFlag reads the persisted flag. A store that has never been written
	// returns a zero flag, not an error.
	LoadFlag() (entity.PersistedFlag, error)

	// SaveFlag durably writes the flag.
	SaveFlag(flag entity.PersistedFlag) error

	// ClearFlag removes the flag so the next startup does not auto-reconnect.
	ClearFlag() error

	// Close releases the underlying storage.
	Close() error
}
