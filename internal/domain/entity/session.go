package entity

// SessionStatus describes the connection lifecycle state of the wallet session.
type SessionStatus int

const (
	// StatusDisconnected means no session is active.
	StatusDisconnected SessionStatus = iota
	// StatusConnecting means a connection attempt is in progress.
	StatusConnecting
	// StatusConnected means the session holds a valid address and signer.
	StatusConnected
	// StatusFailed means the last connection attempt failed; the session is
	// not connected and the failure cause is retained for display.
	StatusFailed
)

// String returns a human-readable representation of the status.
func (s SessionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Disconnected reports whether the status is a not-connected terminal state.
// StatusFailed counts as disconnected: it differs only in carrying the cause.
func (s SessionStatus) Disconnected() bool {
	return s == StatusDisconnected || s == StatusFailed
}

// Session holds the connection state of the single wallet session.
// Invariant: Status == StatusConnected if and only if Address is non-empty.
type Session struct {
	Status  SessionStatus
	Address string
}

// PersistedFlag is the durable connection marker written on connect and
// cleared on disconnect or connection failure. It survives process restarts
// and drives the startup auto-reconnect attempt.
type PersistedFlag struct {
	WasConnected bool
	LastAddress  string
}

// Account is a single account exposed by the signing capability.
type Account struct {
	Address string `json:"address"`
}
