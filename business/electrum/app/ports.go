// Package app contains application services and port definitions for the electrum context.
package app

import (
	"context"

	"github.com/fd1az/electrum-core/business/electrum/domain"
)

// RPC is the request surface of the active server connection.
type RPC interface {
	// Call issues one request and decodes the result into result.
	Call(ctx context.Context, result any, method string, args ...any) error

	// BatchCall sends elems as one batch. Per-item failures are reported in
	// each element's Error; the returned error covers transport failures.
	BatchCall(ctx context.Context, elems []domain.BatchElem) error

	// BatchingDisabled reports whether the server must be queried one request at a time.
	BatchingDisabled() bool

	// Tip returns the latest observed block tip.
	Tip() domain.LatestBlockTip

	// WaitUntilConnected blocks until the connection is usable.
	WaitUntilConnected(ctx context.Context) error
}

// AddressCodec converts between addresses and output scripts for the active network.
type AddressCodec interface {
	// OutputScript returns the locking script paying to address.
	OutputScript(address string) ([]byte, error)

	// ScriptAddress derives the address and script type of an output script.
	ScriptAddress(script []byte) (address, scriptType string, err error)
}

// TxCache persists transaction lookups between runs.
type TxCache interface {
	// Lookup returns cached results and the ids that were not found.
	Lookup(ctx context.Context, txids []string, verbose bool) (map[string]domain.TxResult, []string)

	// StoreVerbose caches decoded transactions that are deep enough to be final.
	StoreVerbose(ctx context.Context, txs map[string]*domain.Transaction) error

	// StoreRaw caches raw transaction hex.
	StoreRaw(ctx context.Context, txs map[string]string) error
}

// PreferenceStore holds user-chosen connection settings.
type PreferenceStore interface {
	IsDisabled(ctx context.Context) (bool, error)
	SetDisabled(ctx context.Context, disabled bool) error

	// SavedPeer returns the user override, or ok=false when none is set.
	SavedPeer(ctx context.Context) (peer domain.Peer, ok bool, err error)
	SavePeer(ctx context.Context, host string, tcpPort, sslPort uint16) error
	ClearPeer(ctx context.Context) error
}

// Alerter surfaces a connection outage to the user.
type Alerter interface {
	ConnectionLost(ctx context.Context, alert domain.ConnectionAlert)
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(ctx context.Context, alert domain.ConnectionAlert)

// ConnectionLost calls f.
func (f AlerterFunc) ConnectionLost(ctx context.Context, alert domain.ConnectionAlert) {
	f(ctx, alert)
}
