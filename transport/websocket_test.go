package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

// wsTestServer accepts one frame format: JSON documents. Everything a
// client sends is recorded, and frames queued with push are written to
// every connected client.
type wsTestServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	received []string
	conns    []*websocket.Conn
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	s := &wsTestServer{}
	handler := websocket.Handler(func(conn *websocket.Conn) {
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		decoder := json.NewDecoder(conn)
		for {
			var raw json.RawMessage
			if err := decoder.Decode(&raw); err != nil {
				return
			}
			s.mu.Lock()
			s.received = append(s.received, string(raw))
			s.mu.Unlock()
		}
	})
	s.srv = httptest.NewServer(handler)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsTestServer) push(t *testing.T, payload string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		if _, err := conn.Write([]byte(payload)); err != nil {
			t.Fatalf("push frame: %v", err)
		}
	}
}

// dropAll severs every accepted connection from the server side. The
// hijacked websocket handles must be closed directly; the httptest
// server no longer owns them.
func (s *wsTestServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

func (s *wsTestServer) receivedFrames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestWebsocketDialer_ReceivesFrames(t *testing.T) {
	req := require.New(t)
	server := newWSTestServer(t)

	dialer := NewWebsocketDialer("", testLogger())
	conn, err := dialer.Dial(context.Background(), server.url())
	req.NoError(err)
	defer conn.Close()

	server.push(t, `{"id":"c-1","text":"hello"}`)

	select {
	case ev := <-conn.Events():
		req.Equal(KindMessage, ev.Kind)
		req.JSONEq(`{"id":"c-1","text":"hello"}`, string(ev.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no frame arrived")
	}
}

func TestWebsocketDialer_SendReachesServer(t *testing.T) {
	req := require.New(t)
	server := newWSTestServer(t)

	dialer := NewWebsocketDialer("", testLogger())
	conn, err := dialer.Dial(context.Background(), server.url())
	req.NoError(err)
	defer conn.Close()

	req.NoError(conn.Send([]byte(`{"id":"c-2","text":"up"}`)))

	waitFor(t, func() bool { return len(server.receivedFrames()) == 1 }, "server never received the frame")
	req.JSONEq(`{"id":"c-2","text":"up"}`, server.receivedFrames()[0])
}

func TestWebsocketDialer_ServerShutdownEmitsClosed(t *testing.T) {
	req := require.New(t)
	server := newWSTestServer(t)

	dialer := NewWebsocketDialer("", testLogger())
	conn, err := dialer.Dial(context.Background(), server.url())
	req.NoError(err)
	defer conn.Close()

	server.dropAll()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, open := <-conn.Events():
			if !open {
				return // channel closed after the terminal event
			}
			if ev.Kind == KindClosed {
				req.NotEmpty(ev.Reason)
			}
		case <-deadline:
			t.Fatal("expected a terminal Closed event")
		}
	}
}

func TestWebsocketDialer_DialFailure(t *testing.T) {
	req := require.New(t)

	dialer := NewWebsocketDialer("", testLogger())
	_, err := dialer.Dial(context.Background(), "ws://127.0.0.1:1/ws")
	req.Error(err)
}

func TestWebsocketDialer_DialHonorsCancelledContext(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dialer := NewWebsocketDialer("", testLogger())
	_, err := dialer.Dial(ctx, "ws://127.0.0.1:1/ws")
	req.ErrorIs(err, context.Canceled)
}

func TestWebsocketDialer_MuxRoutesLikeProduction(t *testing.T) {
	req := require.New(t)
	s := &wsTestServer{}
	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		decoder := json.NewDecoder(conn)
		for {
			var raw json.RawMessage
			if err := decoder.Decode(&raw); err != nil {
				return
			}
			s.mu.Lock()
			s.received = append(s.received, string(raw))
			s.mu.Unlock()
		}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/comments", wsHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dialer := NewWebsocketDialer("", testLogger())
	conn, err := dialer.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/comments")
	req.NoError(err)
	defer conn.Close()

	req.NoError(conn.Send([]byte(`{"path":"routed"}`)))
	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.received) == 1
	}, "mux websocket route never received the frame")
}
