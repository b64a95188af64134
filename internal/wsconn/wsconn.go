// Package wsconn dials WebSocket endpoints and exposes them as byte streams
// so stream protocols such as newline-delimited JSON-RPC can run over them.
package wsconn

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/fd1az/electrum-core/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	DialTimeout    time.Duration
	PingInterval   time.Duration // 0 disables pings
	PongTimeout    time.Duration
	MaxMessageSize int64 // 0 keeps the library default
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:          url,
		Name:         name,
		DialTimeout:  5 * time.Second,
		PingInterval: 30 * time.Second,
		PongTimeout:  10 * time.Second,
	}
}

// Client owns one WebSocket connection.
type Client struct {
	config Config

	stateMu sync.RWMutex
	state   State
	onState func(State, error)

	conn   *websocket.Conn
	stream net.Conn
	cancel context.CancelFunc

	closeOnce sync.Once
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("wsconn: empty URL"))
	}
	return &Client{config: config, state: StateDisconnected}, nil
}

// OnStateChange registers a callback invoked on every state transition.
func (c *Client) OnStateChange(fn func(State, error)) {
	c.stateMu.Lock()
	c.onState = fn
	c.stateMu.Unlock()
}

// Connect dials the endpoint. The returned connection outlives ctx.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting, nil)

	dialCtx := ctx
	if c.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.config.DialTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(dialCtx, c.config.URL, nil)
	if err != nil {
		c.setState(StateDisconnected, err)
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext(c.config.URL),
			apperror.WithCause(err))
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	life, cancel := context.WithCancel(context.Background())
	c.stateMu.Lock()
	c.conn = conn
	c.stream = websocket.NetConn(life, conn, websocket.MessageText)
	c.cancel = cancel
	c.stateMu.Unlock()

	if c.config.PingInterval > 0 {
		go c.pingLoop(life)
	}

	c.setState(StateConnected, nil)
	return nil
}

// Stream returns the connection as a net.Conn. Closing it closes the client.
func (c *Client) Stream() net.Conn {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.stream == nil {
		return nil
	}
	return &stream{Conn: c.stream, client: c}
}

// State returns the current state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.stateMu.RLock()
		s, cancel := c.stream, c.cancel
		c.stateMu.RUnlock()

		if s != nil {
			err = s.Close()
		}
		if cancel != nil {
			cancel()
		}
		c.setState(StateClosed, nil)
	})
	if err != nil && !isClosedErr(err) {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.URL), apperror.WithCause(err))
	}
	return nil
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, c.config.PongTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.setState(StateDisconnected, err)
				c.stream.Close()
				return
			}
		}
	}
}

func (c *Client) setState(s State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed {
		c.stateMu.Unlock()
		return
	}
	c.state = s
	fn := c.onState
	c.stateMu.Unlock()

	if fn != nil {
		fn(s, err)
	}
}

type stream struct {
	net.Conn
	client *Client
}

func (s *stream) Close() error {
	return s.client.Close()
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || websocket.CloseStatus(err) == websocket.StatusNormalClosure
}
