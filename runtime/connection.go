// Package runtime orchestrates the comment stream: it owns the channel
// lifecycle, funnels every inbound frame through admission, and exposes
// the public controller contract. Domain rules live elsewhere.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/errors"
	"github.com/GiancarloEsposito06/Live-comments-overlay/transport"
)

// Reconnection defaults. Delay before attempt k (1-indexed) is
// min(base << (k-1), maxDelay), so the stock schedule runs
// 1s, 2s, 4s, 8s, 16s and then gives up.
const (
	DefaultReconnectBase     = 1 * time.Second
	DefaultReconnectMaxDelay = 30 * time.Second
	DefaultReconnectAttempts = 5
)

// ChannelHandler receives channel happenings from the manager's run
// loop, one at a time. The controller implements it and serializes the
// calls against its own state.
type ChannelHandler interface {
	HandleOpened(endpoint string, attempt int)
	HandleMessage(payload []byte)
	HandleClosed(reason string)
	HandleChannelError(err error, attempt int, terminal bool)
}

// ReconnectPolicy holds the backoff knobs of a ConnectionManager.
type ReconnectPolicy struct {
	Base        time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func (p ReconnectPolicy) withDefaults() ReconnectPolicy {
	if p.Base <= 0 {
		p.Base = DefaultReconnectBase
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultReconnectMaxDelay
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultReconnectAttempts
	}
	return p
}

// delay returns the wait before reconnect attempt k (1-indexed).
func (p ReconnectPolicy) delay(k int) time.Duration {
	d := p.Base << (k - 1)
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// ConnectionManager keeps at most one live channel to the backend and
// redials after unexpected closures. It implements contract.Worker so
// it runs under the supervisor; an intentional Close is terminal and
// ends the run loop without another dial.
type ConnectionManager struct {
	dialer   transport.Dialer
	endpoint string
	policy   ReconnectPolicy
	handler  ChannelHandler
	log      *slog.Logger

	mu       sync.Mutex
	state    domain.ConnectionState
	attempts int
	lastErr  string
	conn     transport.Conn
	closed   chan struct{} // closed exactly once by Close
	once     sync.Once
}

func NewConnectionManager(
	dialer transport.Dialer,
	endpoint string,
	policy ReconnectPolicy,
	handler ChannelHandler,
	log *slog.Logger,
) *ConnectionManager {
	return &ConnectionManager{
		dialer:   dialer,
		endpoint: endpoint,
		policy:   policy.withDefaults(),
		handler:  handler,
		log:      log,
		state:    domain.StateIdle,
		closed:   make(chan struct{}),
	}
}

// Run dials the endpoint and serves the channel until the context is
// cancelled, Close is called, or the retry budget runs out. The first
// dial is immediate (attempt 0); after a failed dial or an unexpected
// closure, reconnect attempt k waits delay(k) first. Once MaxAttempts
// consecutive dials have failed, one terminal observation fires and
// Run returns nil so the supervisor does not restart a backend that
// is gone.
func (m *ConnectionManager) Run(ctx context.Context) error {
	attempt := 0 // consecutive failed dials since the last open
	retrying := false
	for {
		if m.done(ctx) {
			return nil
		}
		if retrying {
			attempt++
			if attempt > m.policy.MaxAttempts {
				m.setState(domain.StateClosed, m.policy.MaxAttempts)
				m.handler.HandleChannelError(errors.ErrUnreachable, m.policy.MaxAttempts, true)
				return nil
			}
			if !m.wait(ctx, m.policy.delay(attempt)) {
				return nil
			}
			if m.done(ctx) {
				return nil
			}
		}

		m.setState(domain.StateConnecting, attempt)
		conn, err := m.dialer.Dial(ctx, m.endpoint)
		if m.done(ctx) {
			if err == nil {
				_ = conn.Close()
			}
			return nil
		}
		if err != nil {
			m.recordFailure(err, attempt)
			m.handler.HandleChannelError(fmt.Errorf("dial %s: %w", m.endpoint, err), attempt, false)
			retrying = true
			continue
		}

		m.attach(conn)
		m.handler.HandleOpened(m.endpoint, attempt)
		attempt = 0

		reason := m.serve(ctx, conn)
		m.detach()
		if m.done(ctx) {
			return nil
		}

		m.handler.HandleClosed(reason)
		retrying = true
	}
}

// serve drains the channel's event stream until it ends and returns
// the closure reason.
func (m *ConnectionManager) serve(ctx context.Context, conn transport.Conn) string {
	reason := "stream ended"
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return reason
		case <-m.closed:
			_ = conn.Close()
			return reason
		case evt, ok := <-conn.Events():
			if !ok {
				return reason
			}
			switch evt.Kind {
			case transport.KindMessage:
				m.handler.HandleMessage(evt.Payload)
			case transport.KindErrored:
				m.log.Debug("channel errored", "error", evt.Err)
			case transport.KindClosed:
				if evt.Reason != "" {
					reason = evt.Reason
				}
			}
		}
	}
}

// Send forwards one payload over the live channel. There is no
// outbound queue: when the channel is not open the payload is the
// caller's problem.
func (m *ConnectionManager) Send(payload []byte) error {
	m.mu.Lock()
	conn := m.conn
	state := m.state
	m.mu.Unlock()
	if state != domain.StateOpen || conn == nil {
		return errors.ErrNotConnected
	}
	return conn.Send(payload)
}

// Close hangs up intentionally. Terminal: the run loop exits and never
// redials. Safe to call more than once.
func (m *ConnectionManager) Close() {
	m.once.Do(func() {
		close(m.closed)
	})
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.state = domain.StateClosed
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Info returns a snapshot of the connection for embedders.
func (m *ConnectionManager) Info() domain.ConnectionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.ConnectionInfo{
		State:    m.state,
		Endpoint: m.endpoint,
		Attempts: m.attempts,
		LastErr:  m.lastErr,
	}
}

// State returns the current lifecycle phase.
func (m *ConnectionManager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *ConnectionManager) done(ctx context.Context) bool {
	select {
	case <-m.closed:
		return true
	default:
	}
	return ctx.Err() != nil
}

// wait sleeps for d, abandoning early on shutdown. Reports whether the
// caller should keep going.
func (m *ConnectionManager) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-m.closed:
		return false
	case <-timer.C:
		return true
	}
}

func (m *ConnectionManager) setState(state domain.ConnectionState, attempts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// After an intentional Close the state is pinned; the run loop
	// may still be unwinding.
	select {
	case <-m.closed:
		return
	default:
	}
	m.state = state
	m.attempts = attempts
}

func (m *ConnectionManager) attach(conn transport.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn = conn
	m.state = domain.StateOpen
	m.attempts = 0
	m.lastErr = ""
}

// detach puts the manager in the transient closed phase after the
// channel ended. The run loop moves it back to connecting when the
// reconnect policy takes over.
func (m *ConnectionManager) detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn = nil
	if m.state == domain.StateOpen {
		m.state = domain.StateClosed
	}
}

func (m *ConnectionManager) recordFailure(err error, attempt int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = attempt
	m.lastErr = err.Error()
}
