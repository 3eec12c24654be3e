// Package sink holds the EventSink adapters the controller dispatches
// to: embedder callbacks, the audit trail, the review index, and the
// console renderer.
package sink

import (
	"context"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain/event"
)

// Callbacks adapts plain observer functions supplied by the embedder
// to the EventSink interface. Every field is optional; nil callbacks
// are skipped. All calls are fire-and-forget, no return value is
// consumed.
type Callbacks struct {
	OnCommentReceived  func(c domain.Comment)
	OnCommentFiltered  func(c domain.Comment, matches []string)
	OnModerationAction func(id string, action domain.ModerationAction, found bool)
	OnConnect          func(endpoint string)
	OnDisconnect       func(reason string)
	OnError            func(message string, terminal bool)
}

func (cb Callbacks) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.CommentReceived:
		if cb.OnCommentReceived != nil {
			cb.OnCommentReceived(evt.Comment)
		}
	case event.CommentFiltered:
		if cb.OnCommentFiltered != nil {
			cb.OnCommentFiltered(evt.Comment, evt.Matches)
		}
	case event.ModerationApplied:
		if cb.OnModerationAction != nil {
			cb.OnModerationAction(evt.CommentID, evt.Action, evt.Found)
		}
	case event.ConnectionOpened:
		if cb.OnConnect != nil {
			cb.OnConnect(evt.Endpoint)
		}
	case event.ConnectionClosed:
		if cb.OnDisconnect != nil {
			cb.OnDisconnect(evt.Reason)
		}
	case event.ConnectionErrored:
		if cb.OnError != nil {
			cb.OnError(evt.Message, evt.Terminal)
		}
	}
	return nil
}
