package domain

import (
	"context"
	"time"
)

// ConnectionState represents the state of the server connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	// StateDegraded means the transport is still open after a successful
	// handshake but the connected flag was cleared, e.g. by a failed ping.
	StateDegraded ConnectionState = "degraded"
)

// LatestBlockTip is the most recent tip and when it was observed locally.
type LatestBlockTip struct {
	Height     int64
	ObservedAt time.Time
}

// IsZero reports whether no tip has been observed.
func (t LatestBlockTip) IsZero() bool {
	return t.Height == 0
}

// Status is a snapshot of the connection.
type Status struct {
	State         ConnectionState
	Peer          Peer
	ServerName    string
	Quirks        ServerQuirks
	Tip           LatestBlockTip
	Attempts      int
	Exhausted     bool
	Reconnects    int64
	LastRequestAt time.Time
}

// ServerConfig describes the active server.
type ServerConfig struct {
	Host       string `json:"host"`
	Port       uint16 `json:"port"`
	ServerName string `json:"serverName"`
	Connected  bool   `json:"connected"`
}

// AlertActions are the choices offered when reconnection gives up.
type AlertActions interface {
	Retry(ctx context.Context) error
	ResetToDefault(ctx context.Context) error
	Cancel()
}

// ConnectionAlert is raised once per outage after the retry budget is spent.
// Peer is zero when the alert comes from a wait timeout.
type ConnectionAlert struct {
	Peer    Peer
	Reason  error
	Actions AlertActions
}
