package electrumx

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/wsconn"
)

// Dialer opens a byte stream to a peer over its transport.
type Dialer struct {
	Timeout   time.Duration
	TLSVerify bool
}

// Dial connects to peer. The caller owns the returned connection.
func (d *Dialer) Dial(ctx context.Context, peer domain.Peer) (net.Conn, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	nd := &net.Dialer{KeepAlive: 30 * time.Second}

	switch peer.Transport {
	case domain.TransportTCP:
		return nd.DialContext(ctx, "tcp", peer.Address())

	case domain.TransportTLS:
		td := &tls.Dialer{
			NetDialer: nd,
			Config: &tls.Config{
				ServerName:         peer.Host,
				InsecureSkipVerify: !d.TLSVerify,
				MinVersion:         tls.VersionTLS12,
			},
		}
		return td.DialContext(ctx, "tcp", peer.Address())

	case domain.TransportWS, domain.TransportWSS:
		wcfg := wsconn.DefaultConfig(peer.URL(), peer.Host)
		wcfg.DialTimeout = d.Timeout
		client, err := wsconn.New(wcfg)
		if err != nil {
			return nil, err
		}
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client.Stream(), nil

	default:
		return nil, fmt.Errorf("unsupported transport %q", peer.Transport)
	}
}

// watchedConn reports the first read or write failure of a live connection.
// Failures after Close are not reported. The callback runs on its own
// goroutine because it closes the rpc client, which waits for the reader.
type watchedConn struct {
	net.Conn
	closed  atomic.Bool
	once    sync.Once
	onError func(error)
}

func newWatchedConn(conn net.Conn, onError func(error)) *watchedConn {
	return &watchedConn{Conn: conn, onError: onError}
}

func (c *watchedConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if err != nil {
		c.report(err)
	}
	return n, err
}

func (c *watchedConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if err != nil {
		c.report(err)
	}
	return n, err
}

func (c *watchedConn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

func (c *watchedConn) report(err error) {
	if c.closed.Load() {
		return
	}
	c.once.Do(func() { go c.onError(err) })
}
