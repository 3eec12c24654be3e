package transport

import (
	"context"
	"fmt"
	"sync"
)

// MemoryServer is an in-process backend for tests and demos. Clients
// obtained through Dialer receive everything passed to Inject, and
// everything a client sends is recorded and, when echo is on,
// broadcast back to every client the way a real backend would.
type MemoryServer struct {
	mu        sync.Mutex
	conns     []*memoryConn
	sent      [][]byte
	echo      bool
	failDials int
	refuse    bool
	nextID    int
}

func NewMemoryServer() *MemoryServer {
	return &MemoryServer{echo: true}
}

// SetEcho controls whether client sends are broadcast back.
func (s *MemoryServer) SetEcho(echo bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.echo = echo
}

// FailDials makes the next n dials fail. Used to exercise reconnects.
func (s *MemoryServer) FailDials(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDials = n
}

// Refuse makes every dial fail until lifted.
func (s *MemoryServer) Refuse(refuse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuse = refuse
}

// Inject pushes a raw frame to every connected client.
func (s *MemoryServer) Inject(payload []byte) {
	s.mu.Lock()
	conns := append([]*memoryConn(nil), s.conns...)
	s.mu.Unlock()
	for _, c := range conns {
		c.deliver(payload)
	}
}

// Sent returns every payload clients have sent, in order.
func (s *MemoryServer) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.sent))
	copy(out, s.sent)
	return out
}

// ConnCount returns the number of live client connections.
func (s *MemoryServer) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// DropAll closes every client connection from the server side, the
// way a backend restart would.
func (s *MemoryServer) DropAll(reason string) {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, c := range conns {
		c.terminate(reason)
	}
}

// Dialer returns a Dialer that connects to this server. The endpoint
// string is accepted as-is; the server does not route on it.
func (s *MemoryServer) Dialer() Dialer {
	return memoryDialer{server: s}
}

type memoryDialer struct {
	server *MemoryServer
}

func (d memoryDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := d.server
	s.mu.Lock()
	if s.refuse {
		s.mu.Unlock()
		return nil, fmt.Errorf("dial %s: connection refused", endpoint)
	}
	if s.failDials > 0 {
		s.failDials--
		s.mu.Unlock()
		return nil, fmt.Errorf("dial %s: connection refused", endpoint)
	}
	s.nextID++
	c := &memoryConn{
		server: s,
		id:     s.nextID,
		events: make(chan Event, eventBuffer),
	}
	s.conns = append(s.conns, c)
	s.mu.Unlock()
	return c, nil
}

type memoryConn struct {
	server *MemoryServer
	id     int

	mu     sync.Mutex
	closed bool
	events chan Event
}

func (c *memoryConn) Send(payload []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("send on closed channel")
	}
	c.mu.Unlock()

	s := c.server
	s.mu.Lock()
	s.sent = append(s.sent, append([]byte(nil), payload...))
	echo := s.echo
	conns := append([]*memoryConn(nil), s.conns...)
	s.mu.Unlock()

	if echo {
		for _, peer := range conns {
			peer.deliver(payload)
		}
	}
	return nil
}

func (c *memoryConn) Events() <-chan Event {
	return c.events
}

// Close hangs up from the client side. Idempotent.
func (c *memoryConn) Close() error {
	c.server.detach(c)
	c.terminate("closed by client")
	return nil
}

func (c *memoryConn) deliver(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.events <- Event{Kind: KindMessage, Payload: append([]byte(nil), payload...)}
}

func (c *memoryConn) terminate(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.events <- Event{Kind: KindClosed, Reason: reason}
	close(c.events)
}

func (s *MemoryServer) detach(c *memoryConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, conn := range s.conns {
		if conn == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return
		}
	}
}
