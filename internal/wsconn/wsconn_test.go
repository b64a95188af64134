package wsconn

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		if handler != nil {
			handler(conn)
		}
	}))
}

// echoHandler echoes messages back to the client.
func echoHandler(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if err := conn.Write(ctx, msgType, data); err != nil {
			return
		}
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClient_Connect_Success(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	cfg := DefaultConfig(wsURL(server), "test")
	cfg.PingInterval = 0

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if client.State() != StateConnected {
		t.Errorf("expected state %v, got %v", StateConnected, client.State())
	}
	if !client.IsConnected() {
		t.Error("expected IsConnected to be true")
	}
}

func TestClient_Connect_Failure(t *testing.T) {
	cfg := DefaultConfig("ws://127.0.0.1:1", "test")
	cfg.PingInterval = 0
	cfg.DialTimeout = time.Second

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Connect(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	if client.State() != StateDisconnected {
		t.Errorf("expected state %v, got %v", StateDisconnected, client.State())
	}
}

func TestNew_EmptyURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestClient_StreamCarriesLines(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	cfg := DefaultConfig(wsURL(server), "test")
	cfg.PingInterval = 0
	client, _ := New(cfg)
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	stream := client.Stream()
	req := `{"jsonrpc":"2.0","id":1,"method":"server.ping","params":[]}` + "\n"
	if _, err := stream.Write([]byte(req)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	stream.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(stream).ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if line != req {
		t.Errorf("echo = %q, want %q", line, req)
	}
}

func TestClient_StateChangeHandler(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	cfg := DefaultConfig(wsURL(server), "test")
	cfg.PingInterval = 0
	client, _ := New(cfg)

	var mu sync.Mutex
	var states []State
	client.OnStateChange(func(state State, err error) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	client.Close()

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateClosed}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestClient_GracefulClose(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	cfg := DefaultConfig(wsURL(server), "test")
	cfg.PingInterval = 0
	client, _ := New(cfg)

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if client.State() != StateClosed {
		t.Errorf("expected state %v, got %v", StateClosed, client.State())
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestClient_PingKeepsAlive(t *testing.T) {
	server := mockWSServer(t, echoHandler)
	defer server.Close()

	cfg := DefaultConfig(wsURL(server), "test")
	cfg.PingInterval = 20 * time.Millisecond
	cfg.PongTimeout = time.Second
	client, _ := New(cfg)
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// Pongs are only processed while someone reads the stream.
	stream := client.Stream()
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := stream.Read(buf); err != nil {
				return
			}
		}
	}()

	time.Sleep(100 * time.Millisecond)
	if !client.IsConnected() {
		t.Errorf("expected connection to survive pings, state %v", client.State())
	}
}
