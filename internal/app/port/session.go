package port

import (
	"context"

	"lumera_wallet/internal/domain/entity"
)

// Snapshot is the read model the UI renders. It is an immutable copy of the
// session state taken under the manager's lock.
type Snapshot struct {
	Status         entity.SessionStatus
	Address        string
	PrimaryBalance entity.Balance
	AllBalances    []entity.Balance
	History        []entity.TransactionRecord
	TxCount        int
	LastError      string
	LastWarning    string
}

// SessionManager defines the interface for the wallet session orchestrator:
// connection lifecycle, periodic refresh, and the submission pipeline.
type SessionManager interface {
	// Resume issues an automatic Connect when the persisted flag says the
	// wallet was connected before the last shutdown. No flag, no attempt.
	Resume(ctx context.Context) error

	// Connect acquires an address from the signing capability, persists the
	// session and triggers the initial data fetch.
	Connect(ctx context.Context) error

	// Disconnect tears the session down. It always succeeds.
	Disconnect()

	// RefreshBalance re-queries balances for the current address. A no-op
	// when disconnected or when a balance refresh is already in flight.
	RefreshBalance(ctx context.Context)

	// RefreshHistory re-queries and reclassifies the transaction history.
	// Same in-flight dedup as RefreshBalance.
	RefreshHistory(ctx context.Context)

	// Transfer sends amount (display units) of the primary currency to
	// recipient and returns the transaction hash.
	Transfer(ctx context.Context, recipient, amount, memo string) (string, error)

	// Delegate stakes amount (display units) to a validator.
	Delegate(ctx context.Context, validator, amount string) (string, error)

	// Undelegate unstakes amount (display units) from a validator.
	Undelegate(ctx context.Context, validator, amount string) (string, error)

	// ListValidators returns at most 50 validator descriptors in gateway order.
	ListValidators(ctx context.Context) ([]entity.ValidatorDescriptor, error)

	// Snapshot returns a copy of the current read model.
	Snapshot() Snapshot
}
