// Package observability exposes the overlay's runtime counters, both
// as Prometheus metrics and as an in-process snapshot consumed by the
// telemetry worker.
package observability

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CommentsReceived  prometheus.Counter
	CommentsFiltered  prometheus.Counter
	CommentsDropped   prometheus.Counter
	CommentsSent      prometheus.Counter
	ReconnectAttempts prometheus.Counter

	// Gauges
	OverlaySize          prometheus.Gauge
	ModerationQueueDepth prometheus.Gauge
	ConnectionOpen       prometheus.Gauge // 1=open, 0=anything else
)

// Init registers the Prometheus metrics (idempotent).
func Init() {
	once.Do(func() {
		CommentsReceived = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_comments_received_total", Help: "Structurally valid inbound comments"})
		CommentsFiltered = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_comments_filtered_total", Help: "Comments flagged by the content filter"})
		CommentsDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_comments_dropped_total", Help: "Malformed frames and flagged comments dropped without display"})
		CommentsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_comments_sent_total", Help: "Locally sent comments forwarded to the backend"})
		ReconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{Name: "overlay_reconnect_attempts_total", Help: "Dial attempts after an unexpected closure"})
		OverlaySize = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_size", Help: "Comments currently visible"})
		ModerationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_moderation_queue_depth", Help: "Quarantined comments pending review"})
		ConnectionOpen = promauto.NewGauge(prometheus.GaugeOpts{Name: "overlay_connection_open", Help: "Channel lifecycle, open=1"})
	})
}

// SetConnectionOpen flips the connection gauge.
func SetConnectionOpen(open bool) {
	if ConnectionOpen == nil {
		return
	}
	if open {
		ConnectionOpen.Set(1)
	} else {
		ConnectionOpen.Set(0)
	}
}

// Snapshot is the point-in-time view reported by the telemetry worker.
type Snapshot struct {
	Received   uint64 `json:"received"`
	Filtered   uint64 `json:"filtered"`
	Dropped    uint64 `json:"dropped"`
	Sent       uint64 `json:"sent"`
	Reconnects uint64 `json:"reconnects"`
	Visible    int    `json:"visible"`
	Queued     int    `json:"queued"`
	Connected  bool   `json:"connected"`
}

// Monitor keeps atomic counters next to the Prometheus metrics so the
// telemetry worker can log a snapshot without scraping.
type Monitor struct {
	received   atomic.Uint64
	filtered   atomic.Uint64
	dropped    atomic.Uint64
	sent       atomic.Uint64
	reconnects atomic.Uint64

	mu        sync.RWMutex
	visible   int
	queued    int
	connected bool
}

func NewMonitor() *Monitor {
	Init()
	return &Monitor{}
}

func (m *Monitor) IncrReceived() {
	m.received.Add(1)
	CommentsReceived.Inc()
}

func (m *Monitor) IncrFiltered() {
	m.filtered.Add(1)
	CommentsFiltered.Inc()
}

func (m *Monitor) IncrDropped() {
	m.dropped.Add(1)
	CommentsDropped.Inc()
}

func (m *Monitor) IncrSent() {
	m.sent.Add(1)
	CommentsSent.Inc()
}

func (m *Monitor) IncrReconnect() {
	m.reconnects.Add(1)
	ReconnectAttempts.Inc()
}

// SetSizes records the current overlay and queue depths.
func (m *Monitor) SetSizes(visible, queued int) {
	m.mu.Lock()
	m.visible = visible
	m.queued = queued
	m.mu.Unlock()
	OverlaySize.Set(float64(visible))
	ModerationQueueDepth.Set(float64(queued))
}

func (m *Monitor) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	m.mu.Unlock()
	SetConnectionOpen(connected)
}

// GetLatest returns the current snapshot.
func (m *Monitor) GetLatest() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Received:   m.received.Load(),
		Filtered:   m.filtered.Load(),
		Dropped:    m.dropped.Load(),
		Sent:       m.sent.Load(),
		Reconnects: m.reconnects.Load(),
		Visible:    m.visible,
		Queued:     m.queued,
		Connected:  m.connected,
	}
}
