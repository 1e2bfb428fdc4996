package port

import (
	"context"

	"lumera_wallet/internal/domain/entity"
)

// ChainGateway defines the interface for querying chain state and
// broadcasting signed transactions. It is backed by a remote node's
// query/broadcast API and is the only path to the network.
type ChainGateway interface {
	// GetBalance fetches the balance of a single denomination for an address.
	GetBalance(ctx context.Context, address, denom string) (entity.Coin, error)

	// GetAllBalances fetches every denomination held by an address.
	GetAllBalances(ctx context.Context, address string) ([]entity.Coin, error)

	// GetTransactionHistory fetches the raw ledger entries involving an
	// address, most recent first.
	GetTransactionHistory(ctx context.Context, address string) ([]entity.RawTxEntry, error)

	// GetValidators fetches the validators currently accepting delegations.
	GetValidators(ctx context.Context) ([]entity.ValidatorDescriptor, error)

	// Broadcast submits a signed transaction and returns its hash.
	Broadcast(ctx context.Context, tx entity.SignedTx) (string, error)
}
