package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for connection establishment and submission.
var (
	// ErrNoWalletInstalled is returned when the signing capability is absent.
	ErrNoWalletInstalled = errors.New("wallet extension is not installed")
	// ErrAlreadyConnecting is returned when a connect is issued while another
	// connection attempt is in progress.
	ErrAlreadyConnecting = errors.New("connection attempt already in progress")
	// ErrChainRegistrationFailed is returned when the chain cannot be
	// registered with the signing capability.
	ErrChainRegistrationFailed = errors.New("failed to register chain with wallet")
	// ErrSigningRejected is returned when the user declines a signature
	// request or the signing capability errors.
	ErrSigningRejected = errors.New("signing request rejected")
	// ErrNetworkUnreachable is returned when the chain node cannot be reached.
	ErrNetworkUnreachable = errors.New("chain node unreachable")
)

// ValidationError reports a rejected command input. It is returned to the
// caller of the specific command only and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BroadcastError carries the gateway's rejection of a signed transaction.
type BroadcastError struct {
	Code   uint32
	RawLog string
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast failed (code %d): %s", e.Code, e.RawLog)
}

// DataFetchError marks a non-fatal post-connection query failure. It is
// logged and swallowed at the manager boundary; the session keeps its
// last-good read model.
type DataFetchError struct {
	Kind string // "balance" or "history"
	Err  error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Kind, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }
