package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/contract"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain/event"
	"github.com/GiancarloEsposito06/Live-comments-overlay/errors"
	"github.com/GiancarloEsposito06/Live-comments-overlay/moderation"
	"github.com/GiancarloEsposito06/Live-comments-overlay/observability"
	"github.com/GiancarloEsposito06/Live-comments-overlay/projection"
	"github.com/GiancarloEsposito06/Live-comments-overlay/ratelimit"
	"github.com/GiancarloEsposito06/Live-comments-overlay/transport"
	"github.com/google/uuid"
)

// Display defaults. The recommended clamp range is enforced by the
// config layer; the controller itself takes any positive duration so
// embedders and tests can run tighter windows.
const (
	DefaultDisplayDuration = 5 * time.Second
	MinDisplayDuration     = 1 * time.Second
	MaxDisplayDuration     = 30 * time.Second
)

// rateKey is the single limiter key of the local sender.
const rateKey = "local"

// Options configures one Controller instance.
type Options struct {
	Endpoint          string
	Username          string
	Capacity          int
	DisplayDuration   time.Duration
	SendCooldown      time.Duration
	Reconnect         ReconnectPolicy
	ModerationEnabled bool
	Privileged        bool
	ComplianceMode    bool
}

func (o Options) normalize() Options {
	if o.Username == "" {
		o.Username = "viewer-" + uuid.NewString()[:6]
	}
	if o.DisplayDuration <= 0 {
		o.DisplayDuration = DefaultDisplayDuration
	}
	return o
}

// Controller composes the stream: admission of inbound comments, the
// bounded overlay with per-comment expiry, the quarantine queue, the
// moderation state machine, the gated send path, and teardown. One
// mutex serializes API calls, channel events, and timer callbacks, so
// no two mutations of the shared state ever interleave. No method
// blocks on the network.
type Controller struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger

	filter  *moderation.Filter
	limiter *ratelimit.Limiter
	overlay *projection.Overlay
	queue   *moderation.Queue
	consent contract.ConsentStore
	sinks   []contract.EventSink
	monitor *observability.Monitor
	manager *ConnectionManager

	timers    map[string]*time.Timer // pending expiries, keyed by comment id
	now       func() time.Time
	destroyed bool
}

func NewController(
	opts Options,
	dialer transport.Dialer,
	filter *moderation.Filter,
	consent contract.ConsentStore,
	monitor *observability.Monitor,
	log *slog.Logger,
	sinks ...contract.EventSink,
) *Controller {
	opts = opts.normalize()
	c := &Controller{
		opts:    opts,
		log:     log,
		filter:  filter,
		limiter: ratelimit.NewLimiter(opts.SendCooldown),
		overlay: projection.NewOverlay(opts.Capacity),
		queue:   moderation.NewQueue(),
		consent: consent,
		sinks:   sinks,
		monitor: monitor,
		timers:  make(map[string]*time.Timer),
		now:     time.Now,
	}
	c.manager = NewConnectionManager(dialer, opts.Endpoint, opts.Reconnect, c, log)
	return c
}

// Run serves the connection under the caller's supervisor. It returns
// when the context ends, Destroy is called, or the backend proves
// unreachable.
func (c *Controller) Run(ctx context.Context) error {
	return c.manager.Run(ctx)
}

// SendComment gates and forwards one comment from the local sender.
// The backend broadcasts it back through admission; nothing is echoed
// locally, so the displayed stream has a single source of truth.
func (c *Controller) SendComment(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return errors.ErrNotConnected
	}

	if c.opts.ComplianceMode {
		state, err := c.consent.Get(context.Background())
		if err != nil {
			c.log.Warn("consent lookup failed", "error", err)
			return errors.ErrConsentRequired
		}
		if state != domain.ConsentGranted {
			return errors.ErrConsentRequired
		}
	}
	if !domain.ValidText(text) {
		return errors.ErrEmptyOrInvalid
	}
	if !c.limiter.Allow(rateKey, c.now()) {
		return errors.ErrRateLimited
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		Username:  c.opts.Username,
		Text:      strings.TrimSpace(text),
		CreatedAt: c.now(),
	}
	payload, err := domain.EncodeWire(comment)
	if err != nil {
		return err
	}
	if err := c.manager.Send(payload); err != nil {
		return err
	}
	c.monitor.IncrSent()
	return nil
}

// Moderate applies one action to a visible comment. Ids absent from
// the overlay are a no-op; the audit observation fires either way so
// the decision trail stays complete. A delete strikes both the overlay
// and the quarantine queue.
func (c *Controller) Moderate(id string, action domain.ModerationAction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}

	found := c.overlay.Contains(id)
	c.dispatch(event.ModerationApplied{
		CommentID: id,
		Action:    action,
		Found:     found,
		At:        c.now(),
	})
	if !found {
		return
	}

	switch action {
	case domain.ActionHighlight:
		c.overlay.Highlight(id)
	case domain.ActionQuarantine:
		comment, _ := c.overlay.Get(id)
		c.queue.Push(comment)
		if c.opts.Privileged {
			censored, _ := c.filter.Censor(comment.Text)
			c.overlay.Quarantine(id, censored)
		} else {
			c.removeVisible(id)
		}
	case domain.ActionDelete:
		c.removeVisible(id)
		c.queue.Remove(id)
	default:
		c.log.Warn("unknown moderation action ignored", "action", string(action))
	}
	c.monitor.SetSizes(c.overlay.Len(), c.queue.Len())
}

// Visible returns a snapshot of the overlay, oldest first.
func (c *Controller) Visible() []domain.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay.Snapshot()
}

// Quarantined returns a snapshot of the moderation queue.
func (c *Controller) Quarantined() []domain.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Snapshot()
}

// ConnectionState reports the channel lifecycle phase.
func (c *Controller) ConnectionState() domain.ConnectionState {
	return c.manager.State()
}

// ConnectionInfo reports the full channel snapshot.
func (c *Controller) ConnectionInfo() domain.ConnectionInfo {
	return c.manager.Info()
}

// Destroy tears the controller down: terminal close with no reconnect,
// every pending timer cancelled, both sets cleared, and the consent
// record wiped when compliance mode is on. Idempotent.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.overlay.Clear()
	c.queue.Clear()
	compliance := c.opts.ComplianceMode
	c.mu.Unlock()

	c.manager.Close()
	if compliance {
		if err := c.consent.Clear(context.Background()); err != nil {
			c.log.Warn("clearing consent record failed", "error", err)
		}
	}
	c.monitor.SetSizes(0, 0)
	c.monitor.SetConnected(false)
}

// HandleOpened implements ChannelHandler.
func (c *Controller) HandleOpened(endpoint string, attempt int) {
	c.monitor.SetConnected(true)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatch(event.ConnectionOpened{Endpoint: endpoint, Attempt: attempt, At: c.now()})
}

// HandleMessage implements ChannelHandler.
func (c *Controller) HandleMessage(payload []byte) {
	c.admit(payload)
}

// HandleClosed implements ChannelHandler.
func (c *Controller) HandleClosed(reason string) {
	c.monitor.SetConnected(false)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatch(event.ConnectionClosed{Reason: reason, At: c.now()})
}

// HandleChannelError implements ChannelHandler.
func (c *Controller) HandleChannelError(err error, attempt int, terminal bool) {
	if !terminal {
		c.monitor.IncrReconnect()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatch(event.ConnectionErrored{
		Message:  err.Error(),
		Attempt:  attempt,
		Terminal: terminal,
		At:       c.now(),
	})
}

// scheduleExpiry arms the one-shot removal of a freshly admitted
// comment. Caller holds the lock.
func (c *Controller) scheduleExpiry(id string) {
	if old, ok := c.timers[id]; ok {
		old.Stop()
	}
	c.timers[id] = time.AfterFunc(c.opts.DisplayDuration, func() {
		c.expire(id)
	})
}

// expire removes a comment whose display window elapsed. Firing after
// an eviction or a moderation delete is a harmless no-op.
func (c *Controller) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	delete(c.timers, id)
	if c.overlay.Remove(id) {
		c.monitor.SetSizes(c.overlay.Len(), c.queue.Len())
	}
}

// removeVisible drops a comment from the overlay and disarms its
// expiry. Caller holds the lock.
func (c *Controller) removeVisible(id string) {
	c.overlay.Remove(id)
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
}

// dispatch feeds one event to every sink. Sink failures are logged and
// swallowed; the stream never stops for an observer. Caller holds the
// lock.
func (c *Controller) dispatch(e event.DomainEvent) {
	for _, sink := range c.sinks {
		if err := sink.Consume(context.Background(), e); err != nil {
			c.log.Warn("event sink failed", "kind", e.Kind(), "error", err)
		}
	}
}
