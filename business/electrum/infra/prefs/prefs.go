// Package prefs stores the user's connection preferences.
package prefs

import (
	"context"
	"strconv"

	"github.com/fd1az/electrum-core/business/electrum/domain"
)

// Preference keys.
const (
	KeyHost     = "electrum_host"
	KeyTCPPort  = "electrum_tcp_port"
	KeySSLPort  = "electrum_ssl_port"
	KeyDisabled = "electrum_disabled"
)

// KV is the subset of the store used for preferences.
type KV interface {
	Pref(ctx context.Context, key string) (string, error)
	SetPref(ctx context.Context, key, value string) error
}

// Store implements app.PreferenceStore.
type Store struct {
	kv KV
}

// New creates a new Store.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// IsDisabled reports whether the user turned off server connections.
func (s *Store) IsDisabled(ctx context.Context) (bool, error) {
	v, err := s.kv.Pref(ctx, KeyDisabled)
	return v == "1", err
}

// SetDisabled turns server connections off or on.
func (s *Store) SetDisabled(ctx context.Context, disabled bool) error {
	v := ""
	if disabled {
		v = "1"
	}
	return s.kv.SetPref(ctx, KeyDisabled, v)
}

// SavedPeer returns the user's server override. The TLS port wins over TCP.
func (s *Store) SavedPeer(ctx context.Context) (domain.Peer, bool, error) {
	host, err := s.kv.Pref(ctx, KeyHost)
	if err != nil || host == "" {
		return domain.Peer{}, false, err
	}

	for _, k := range []struct {
		key       string
		transport domain.Transport
	}{
		{KeySSLPort, domain.TransportTLS},
		{KeyTCPPort, domain.TransportTCP},
	} {
		v, err := s.kv.Pref(ctx, k.key)
		if err != nil {
			return domain.Peer{}, false, err
		}
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil || port == 0 {
			continue
		}
		return domain.Peer{Host: host, Port: uint16(port), Transport: k.transport}, true, nil
	}
	return domain.Peer{}, false, nil
}

// SavePeer stores a server override. Zero ports are cleared.
func (s *Store) SavePeer(ctx context.Context, host string, tcpPort, sslPort uint16) error {
	if err := s.kv.SetPref(ctx, KeyHost, host); err != nil {
		return err
	}
	if err := s.kv.SetPref(ctx, KeyTCPPort, portString(tcpPort)); err != nil {
		return err
	}
	return s.kv.SetPref(ctx, KeySSLPort, portString(sslPort))
}

// ClearPeer removes the server override.
func (s *Store) ClearPeer(ctx context.Context) error {
	return s.SavePeer(ctx, "", 0, 0)
}

func portString(p uint16) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(int(p))
}
