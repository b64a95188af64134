package electrumx

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fd1az/electrum-core/business/electrum/domain"
	"github.com/fd1az/electrum-core/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcErrorBody   `json:"error,omitempty"`
}

type handlerFunc func(params []json.RawMessage) (any, *rpcErrorBody)

// fakeServer is an in-process Electrum server speaking newline-delimited
// JSON-RPC over TCP.
type fakeServer struct {
	t  *testing.T
	ln net.Listener

	mu       sync.Mutex
	banner   string
	height   int64
	handlers map[string]handlerFunc
	conns    []net.Conn

	// hangUp makes the server drop every connection right after accepting it
	hangUp   atomic.Bool
	accepted atomic.Int32
}

func newFakeServer(t *testing.T, banner string) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &fakeServer{
		t:        t,
		ln:       ln,
		banner:   banner,
		height:   800_000,
		handlers: map[string]handlerFunc{},
	}
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

func (s *fakeServer) Peer() domain.Peer {
	addr := s.ln.Addr().(*net.TCPAddr)
	return domain.Peer{Host: "127.0.0.1", Port: uint16(addr.Port), Transport: domain.TransportTCP}
}

func (s *fakeServer) Port() uint16 {
	return s.Peer().Port
}

func (s *fakeServer) Handle(method string, fn handlerFunc) {
	s.mu.Lock()
	s.handlers[method] = fn
	s.mu.Unlock()
}

// DropConnections closes every open client connection.
func (s *fakeServer) DropConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

func (s *fakeServer) Close() {
	s.ln.Close()
	s.DropConnections()
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.accepted.Add(1)
		if s.hangUp.Load() {
			conn.Close()
			continue
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		go s.handleConn(conn)
	}
}

func (s *fakeServer) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1<<20), 1<<24)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if line[0] == '[' {
			var reqs []rpcRequest
			if err := json.Unmarshal(line, &reqs); err != nil {
				return
			}
			resps := make([]rpcResponse, len(reqs))
			for i, r := range reqs {
				resps[i] = s.dispatch(r)
			}
			if err := enc.Encode(resps); err != nil {
				return
			}
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			return
		}
		if err := enc.Encode(s.dispatch(req)); err != nil {
			return
		}
	}
}

func (s *fakeServer) dispatch(req rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	s.mu.Lock()
	fn, ok := s.handlers[req.Method]
	banner, height := s.banner, s.height
	s.mu.Unlock()

	switch {
	case ok:
		resp.Result, resp.Error = fn(req.Params)
	case req.Method == domain.MethodServerVersion:
		resp.Result = []string{banner, "1.4"}
	case req.Method == domain.MethodHeadersSubscribe:
		resp.Result = map[string]any{"height": height, "hex": "00"}
	case req.Method == domain.MethodServerPing:
		resp.Result = nil
	default:
		resp.Error = &rpcErrorBody{Code: -32601, Message: "unknown method " + req.Method}
	}

	// a nil result must still be sent as null
	if resp.Error == nil && resp.Result == nil {
		resp.Result = json.RawMessage("null")
	}
	return resp
}

// unusedPort returns a port with nothing listening on it.
func unusedPort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()
	p, _ := strconv.Atoi(port)
	return uint16(p)
}
