package port

import (
	"context"

	"lumera_wallet/internal/domain/entity"
)

// SigningCapability defines the interface to the browser wallet extension.
// It holds the key material and produces signed transactions; this module
// never sees private keys.
type SigningCapability interface {
	// Available reports whether the wallet extension is installed at all.
	Available() bool

	// Enable asks the extension to unlock and authorize the given chain.
	// Returns entity.ErrChainRegistrationFailed-compatible errors when the
	// chain id is unknown to the extension.
	Enable(ctx context.Context, chainID string) error

	// SuggestChain registers an unknown network with the extension using the
	// static chain-parameter table.
	SuggestChain(ctx context.Context, def entity.ChainDefinition) error

	// Accounts returns the accounts the extension exposes for the chain.
	Accounts(ctx context.Context, chainID string) ([]entity.Account, error)

	// Sign produces a signed transaction for the given messages. The fee and
	// memo are forwarded verbatim.
	Sign(ctx context.Context, signer string, msgs []entity.Msg, fee entity.Fee, memo string) (entity.SignedTx, error)

	// AccountChanges returns a channel that receives a signal whenever the
	// selected account changes in the extension. The channel is closed when
	// ctx is cancelled; callers subscribe once per session.
	AccountChanges(ctx context.Context) (<-chan struct{}, error)
}
