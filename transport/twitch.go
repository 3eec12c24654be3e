package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	twitch "github.com/gempir/go-twitch-irc/v4"
)

// EndpointScheme prefixes used to pick a backend from a single
// endpoint string.
const (
	SchemeTwitch = "twitch://"
)

// TwitchDialer overlays a Twitch chat. Inbound PRIVMSGs are rewrapped
// as wire frames so the rest of the pipeline never knows the backend.
// With no credentials the connection is anonymous and read-only.
type TwitchDialer struct {
	username string
	token    string
	log      *slog.Logger
}

func NewTwitchDialer(username, token string, log *slog.Logger) *TwitchDialer {
	return &TwitchDialer{username: username, token: token, log: log}
}

// Dial joins the channel named by the endpoint (twitch://<channel>)
// and blocks until the IRC welcome arrives or the context is done.
func (d *TwitchDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	channel := strings.TrimPrefix(endpoint, SchemeTwitch)
	channel = strings.TrimPrefix(channel, "#")
	if channel == "" {
		return nil, fmt.Errorf("dial %s: missing channel name", endpoint)
	}

	var client *twitch.Client
	if d.username == "" {
		client = twitch.NewAnonymousClient()
	} else {
		client = twitch.NewClient(d.username, d.token)
	}

	c := &twitchConn{
		client:   client,
		channel:  channel,
		readOnly: d.username == "",
		log:      d.log,
		events:   make(chan Event, eventBuffer),
	}

	connected := make(chan struct{})
	client.OnConnect(func() {
		close(connected)
	})
	client.OnPrivateMessage(c.onMessage)

	// Connect blocks for the whole session, so it gets its own
	// goroutine; its return is the disconnect signal.
	connectErr := make(chan error, 1)
	go func() {
		connectErr <- client.Connect()
	}()
	client.Join(channel)

	select {
	case <-connected:
		go c.waitDisconnect(connectErr)
		return c, nil
	case err := <-connectErr:
		if err == nil {
			err = fmt.Errorf("connection ended during handshake")
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	case <-ctx.Done():
		_ = client.Disconnect()
		return nil, ctx.Err()
	}
}

type twitchConn struct {
	client   *twitch.Client
	channel  string
	readOnly bool
	log      *slog.Logger

	mu     sync.Mutex
	closed bool
	events chan Event
}

func (c *twitchConn) onMessage(msg twitch.PrivateMessage) {
	payload, err := domain.EncodeWire(domain.Comment{
		ID:        msg.ID,
		Username:  msg.User.DisplayName,
		Text:      msg.Message,
		CreatedAt: msg.Time,
	})
	if err != nil {
		c.log.Debug("dropping unencodable twitch message", "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.events <- Event{Kind: KindMessage, Payload: payload}
}

// waitDisconnect turns the end of client.Connect into the terminal
// Closed event.
func (c *twitchConn) waitDisconnect(connectErr <-chan error) {
	err := <-connectErr

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	reason := "stream ended"
	if err != nil {
		c.events <- Event{Kind: KindErrored, Err: err}
		reason = err.Error()
	}
	c.events <- Event{Kind: KindClosed, Reason: reason}
	close(c.events)
}

// Send posts the wire frame's text to the channel. Twitch carries
// plain text, so the frame is unwrapped here.
func (c *twitchConn) Send(payload []byte) error {
	if c.readOnly {
		return fmt.Errorf("twitch send: anonymous connection is read-only")
	}
	comment, err := domain.DecodeWire(payload)
	if err != nil {
		return fmt.Errorf("twitch send: %w", err)
	}
	c.client.Say(c.channel, comment.Text)
	return nil
}

func (c *twitchConn) Events() <-chan Event {
	return c.events
}

func (c *twitchConn) Close() error {
	return c.client.Disconnect()
}
