// Package electrumx maintains the connection to an Electrum server.
package electrumx

import (
	"time"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/apperror"
	"github.com/fd1az/electrum-core/internal/config"
)

// Config holds connection settings.
type Config struct {
	Peers             []domain.Peer
	ClientName        string
	ProtocolVersion   string
	DialTimeout       time.Duration
	RequestTimeout    time.Duration
	TLSVerify         bool
	MaxAttempts       int           // consecutive failures before alerting
	RetryDelay        time.Duration // between failed attempts
	ReconnectDelay    time.Duration // after losing a clearnet peer
	OnionDelay        time.Duration // after losing an onion peer
	WaitTimeout       time.Duration
	KeepAliveInterval time.Duration // 0 disables keep-alive
}

// DefaultConfig returns sensible defaults for the given peers.
func DefaultConfig(peers ...domain.Peer) Config {
	return Config{
		Peers:             peers,
		ClientName:        "bluewallet",
		ProtocolVersion:   "1.4",
		DialTimeout:       5 * time.Second,
		RequestTimeout:    30 * time.Second,
		MaxAttempts:       5,
		RetryDelay:        500 * time.Millisecond,
		ReconnectDelay:    500 * time.Millisecond,
		OnionDelay:        4 * time.Second,
		WaitTimeout:       30 * time.Second,
		KeepAliveInterval: time.Minute,
	}
}

// ConfigFrom converts application settings.
func ConfigFrom(cfg config.ElectrumConfig) (Config, error) {
	peers := make([]domain.Peer, 0, len(cfg.Peers))
	for _, s := range cfg.Peers {
		p, err := domain.ParsePeer(s)
		if err != nil {
			return Config{}, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
		}
		peers = append(peers, p)
	}

	return Config{
		Peers:             peers,
		ClientName:        cfg.ClientName,
		ProtocolVersion:   cfg.ProtocolVersion,
		DialTimeout:       cfg.DialTimeout,
		RequestTimeout:    cfg.RequestTimeout,
		TLSVerify:         cfg.TLSVerify,
		MaxAttempts:       cfg.MaxAttempts,
		RetryDelay:        cfg.RetryDelay,
		ReconnectDelay:    cfg.ReconnectDelay,
		OnionDelay:        cfg.OnionDelay,
		WaitTimeout:       cfg.WaitTimeout,
		KeepAliveInterval: cfg.KeepAliveInterval,
	}, nil
}

// reconnectDelay is the pause before redialing after losing peer.
func (c Config) reconnectDelay(peer domain.Peer) time.Duration {
	if peer.IsOnion() {
		return c.OnionDelay
	}
	return c.ReconnectDelay
}
