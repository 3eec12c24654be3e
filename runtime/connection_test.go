package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/errors"
	"github.com/GiancarloEsposito06/Live-comments-overlay/transport"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures channel happenings for assertions.
type recordingHandler struct {
	mu       sync.Mutex
	opens    int
	closes   int
	messages [][]byte
	errs     []error
	terminal int
}

func (h *recordingHandler) HandleOpened(endpoint string, attempt int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opens++
}

func (h *recordingHandler) HandleMessage(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, payload)
}

func (h *recordingHandler) HandleClosed(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
}

func (h *recordingHandler) HandleChannelError(err error, attempt int, terminal bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
	if terminal {
		h.terminal++
	}
}

func (h *recordingHandler) snapshot() (opens, closes, terminal int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opens, h.closes, h.terminal
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

func fastPolicy(attempts int) ReconnectPolicy {
	return ReconnectPolicy{Base: 5 * time.Millisecond, MaxDelay: 50 * time.Millisecond, MaxAttempts: attempts}
}

func TestReconnectPolicy_Schedule(t *testing.T) {
	req := require.New(t)
	p := ReconnectPolicy{Base: time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 5}

	// Exponential with a cap: 1s, 2s, 4s, 8s, 16s, then clamped
	req.Equal(1*time.Second, p.delay(1))
	req.Equal(2*time.Second, p.delay(2))
	req.Equal(4*time.Second, p.delay(3))
	req.Equal(8*time.Second, p.delay(4))
	req.Equal(16*time.Second, p.delay(5))
	req.Equal(30*time.Second, p.delay(6))
	req.Equal(30*time.Second, p.delay(40), "overflowed shifts clamp to the cap")
}

func TestConnectionManager_DeliversMessages(t *testing.T) {
	req := require.New(t)
	server := transport.NewMemoryServer()
	handler := &recordingHandler{}
	m := NewConnectionManager(server.Dialer(), "mem://t", fastPolicy(3), handler, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { _ = m.Run(ctx); close(done) }()

	require.Eventually(t, func() bool { return m.State() == domain.StateOpen }, time.Second, time.Millisecond)

	server.Inject([]byte(`{"id":"c1"}`))
	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.messages) == 1
	}, time.Second, time.Millisecond)

	m.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not exit after Close")
	}
	req.Equal(domain.StateClosed, m.State())
}

func TestConnectionManager_ReconnectsAfterUnexpectedDrop(t *testing.T) {
	req := require.New(t)
	server := transport.NewMemoryServer()
	handler := &recordingHandler{}
	m := NewConnectionManager(server.Dialer(), "mem://t", fastPolicy(5), handler, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.State() == domain.StateOpen }, time.Second, time.Millisecond)

	server.DropAll("backend restart")

	// The manager notices the closure and dials again
	require.Eventually(t, func() bool {
		opens, closes, _ := handler.snapshot()
		return closes == 1 && opens == 2
	}, time.Second, time.Millisecond)
	req.Equal(domain.StateOpen, m.State())
	req.Equal(0, m.Info().Attempts, "attempt counter resets on open")

	m.Close()
}

// stateSamplingHandler records the manager's state as seen from
// inside HandleClosed, after detach and before the redial.
type stateSamplingHandler struct {
	recordingHandler
	manager *ConnectionManager
	states  []domain.ConnectionState
}

func (h *stateSamplingHandler) HandleClosed(reason string) {
	h.mu.Lock()
	h.states = append(h.states, h.manager.State())
	h.mu.Unlock()
	h.recordingHandler.HandleClosed(reason)
}

func TestConnectionManager_AbruptClosurePassesThroughClosedState(t *testing.T) {
	req := require.New(t)
	server := transport.NewMemoryServer()
	handler := &stateSamplingHandler{}
	m := NewConnectionManager(server.Dialer(), "mem://t", fastPolicy(5), handler, testLogger())
	handler.manager = m

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.State() == domain.StateOpen }, time.Second, time.Millisecond)

	server.DropAll("backend restart")

	require.Eventually(t, func() bool {
		opens, _, _ := handler.snapshot()
		return opens == 2
	}, time.Second, time.Millisecond)

	handler.mu.Lock()
	states := append([]domain.ConnectionState(nil), handler.states...)
	handler.mu.Unlock()
	req.Len(states, 1)
	req.Equal(domain.StateClosed, states[0], "a dropped channel reads closed until the redial starts")

	m.Close()
}

func TestConnectionManager_TerminalAfterExhaustedRetries(t *testing.T) {
	req := require.New(t)
	server := transport.NewMemoryServer()
	server.Refuse(true)
	handler := &recordingHandler{}
	m := NewConnectionManager(server.Dialer(), "mem://t", fastPolicy(3), handler, testLogger())

	done := make(chan struct{})
	go func() { _ = m.Run(context.Background()); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not give up")
	}

	_, _, terminal := handler.snapshot()
	req.Equal(1, terminal, "exactly one terminal observation")
	req.Equal(domain.StateClosed, m.State())

	handler.mu.Lock()
	last := handler.errs[len(handler.errs)-1]
	handler.mu.Unlock()
	req.ErrorIs(last, errors.ErrUnreachable)

	// No further attempt fires on its own
	server.Refuse(false)
	time.Sleep(100 * time.Millisecond)
	req.Equal(0, server.ConnCount())
}

func TestConnectionManager_IntentionalCloseNeverRedials(t *testing.T) {
	req := require.New(t)
	server := transport.NewMemoryServer()
	handler := &recordingHandler{}
	m := NewConnectionManager(server.Dialer(), "mem://t", fastPolicy(5), handler, testLogger())

	ctx := context.Background()
	done := make(chan struct{})
	go func() { _ = m.Run(ctx); close(done) }()
	require.Eventually(t, func() bool { return m.State() == domain.StateOpen }, time.Second, time.Millisecond)

	m.Close()
	<-done
	time.Sleep(50 * time.Millisecond)

	opens, closes, terminal := handler.snapshot()
	req.Equal(1, opens)
	req.Equal(0, closes, "intentional close emits nothing further")
	req.Equal(0, terminal)
	req.Equal(0, server.ConnCount())
	req.Equal(domain.StateClosed, m.State())

	// Close twice is safe
	m.Close()
}

func TestConnectionManager_SendRequiresOpenChannel(t *testing.T) {
	req := require.New(t)
	server := transport.NewMemoryServer()
	m := NewConnectionManager(server.Dialer(), "mem://t", fastPolicy(3), &recordingHandler{}, testLogger())

	req.ErrorIs(m.Send([]byte(`{}`)), errors.ErrNotConnected)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()
	require.Eventually(t, func() bool { return m.State() == domain.StateOpen }, time.Second, time.Millisecond)

	req.NoError(m.Send([]byte(`{"id":"c1"}`)))
	req.Len(server.Sent(), 1)

	m.Close()
	req.ErrorIs(m.Send([]byte(`{}`)), errors.ErrNotConnected)
}
