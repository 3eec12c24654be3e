// Package transport provides the duplex channel the overlay speaks
// over, with interchangeable backends. The controller never imports a
// concrete backend; it receives a Dialer at construction.
package transport

import (
	"context"

	"github.com/gabriel-vasile/mimetype"
)

type EventKind uint8

const (
	// KindMessage carries one inbound frame payload.
	KindMessage EventKind = iota
	// KindErrored reports a stream fault. A Closed event follows.
	KindErrored
	// KindClosed is terminal. The events channel closes after it.
	KindClosed
)

func (k EventKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindErrored:
		return "errored"
	default:
		return "closed"
	}
}

// Event is one happening on a live channel.
type Event struct {
	Kind    EventKind
	Payload []byte // KindMessage only
	Reason  string // KindClosed only
	Err     error  // KindErrored only
}

// Dialer opens a duplex channel to a comment backend. Dial blocks
// until the channel is usable or the context is done; callers that
// must not block run it from their own goroutine.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// Conn is one live duplex channel. Events delivers inbound frames and
// ends with exactly one KindClosed, after which the channel is closed.
// Send and Close are safe for concurrent use.
type Conn interface {
	Send(payload []byte) error
	Events() <-chan Event
	Close() error
}

// eventBuffer smooths inbound bursts; consumers drain the channel
// until it closes.
const eventBuffer = 64

// IsJSONFrame reports whether a raw frame sniffs as a JSON document.
// Binary junk is rejected here before any decode attempt.
func IsJSONFrame(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return mimetype.Detect(data).Is("application/json")
}
