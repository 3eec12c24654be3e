package sink

import (
	"context"
	"fmt"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain/event"
	"github.com/gookit/color"
)

// ConsoleSink renders the stream to the terminal. It is the default
// viewer surface of cmd/overlay; embedders with their own rendering
// simply leave it out.
type ConsoleSink struct {
	colours bool
}

func NewConsoleSink(colours bool) ConsoleSink {
	return ConsoleSink{colours: colours}
}

func (s ConsoleSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.CommentReceived:
		s.printComment(evt.Comment)
	case event.CommentFiltered:
		s.printf(color.Yellow, "-- filtered %s (%v)\n", evt.Comment.ID, evt.Matches)
	case event.ModerationApplied:
		verdict := "applied"
		if !evt.Found {
			verdict = "no-op"
		}
		s.printf(color.Magenta, "-- moderation %s on %s: %s\n", evt.Action, evt.CommentID, verdict)
	case event.ConnectionOpened:
		s.printf(color.Green, "== connected to %s\n", evt.Endpoint)
	case event.ConnectionClosed:
		s.printf(color.Cyan, "== disconnected: %s\n", evt.Reason)
	case event.ConnectionErrored:
		if evt.Terminal {
			s.printf(color.Red, "== backend unreachable, giving up: %s\n", evt.Message)
		} else {
			s.printf(color.Red, "== connection error (attempt %d): %s\n", evt.Attempt, evt.Message)
		}
	}
	return nil
}

func (s ConsoleSink) printComment(c domain.Comment) {
	if s.colours {
		color.Bold.Printf("%s", c.Username)
		fmt.Printf(": %s\n", c.Text)
		return
	}
	fmt.Printf("%s: %s\n", c.Username, c.Text)
}

func (s ConsoleSink) printf(c color.Color, format string, args ...any) {
	if s.colours {
		c.Printf(format, args...)
		return
	}
	fmt.Printf(format, args...)
}
