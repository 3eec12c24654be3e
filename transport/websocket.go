package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/net/websocket"
)

// WebsocketDialer speaks JSON text frames over a websocket endpoint
// (ws:// or wss://).
type WebsocketDialer struct {
	origin string
	log    *slog.Logger
}

func NewWebsocketDialer(origin string, log *slog.Logger) *WebsocketDialer {
	if origin == "" {
		origin = "http://localhost/"
	}
	return &WebsocketDialer{origin: origin, log: log}
}

func (d *WebsocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ws, err := websocket.Dial(endpoint, "", d.origin)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	c := &wsConn{
		ws:     ws,
		log:    d.log,
		events: make(chan Event, eventBuffer),
	}
	go c.readLoop()
	return c, nil
}

type wsConn struct {
	ws  *websocket.Conn
	log *slog.Logger

	writeMu sync.Mutex
	events  chan Event

	closeOnce sync.Once
}

// readLoop decodes one JSON document per frame until the stream ends,
// then emits the terminal Closed event and closes the events channel.
func (c *wsConn) readLoop() {
	decoder := json.NewDecoder(c.ws)
	reason := "stream ended"
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if !errors.Is(err, io.EOF) && !isClosedErr(err) {
				c.log.Debug("websocket read failed", "error", err)
				c.events <- Event{Kind: KindErrored, Err: err}
				reason = err.Error()
			}
			break
		}
		c.events <- Event{Kind: KindMessage, Payload: []byte(raw)}
	}
	c.events <- Event{Kind: KindClosed, Reason: reason}
	close(c.events)
}

func (c *wsConn) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.ws.Write(payload); err != nil {
		return fmt.Errorf("websocket send: %w", err)
	}
	return nil
}

func (c *wsConn) Events() <-chan Event {
	return c.events
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}

// isClosedErr spots the read error produced by closing our own socket.
func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
