package sink

import (
	"context"

	"github.com/GiancarloEsposito06/Live-comments-overlay/contract"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain/event"
)

// Audit entry kinds.
const (
	AuditKindModeration = "moderation"
	AuditKindConnection = "connection"
)

// AuditSink writes the decisions worth keeping to the audit trail:
// every moderation call, hit or miss, and the terminal unreachable
// incident. Ordinary stream traffic is not recorded.
type AuditSink struct {
	recorder contract.AuditRecorder
}

func NewAuditSink(recorder contract.AuditRecorder) AuditSink {
	return AuditSink{recorder: recorder}
}

func (s AuditSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.ModerationApplied:
		return s.recorder.Record(ctx, domain.AuditEntry{
			At:        evt.At,
			Kind:      AuditKindModeration,
			CommentID: evt.CommentID,
			Action:    string(evt.Action),
			Found:     evt.Found,
		})
	case event.ConnectionErrored:
		if !evt.Terminal {
			return nil
		}
		return s.recorder.Record(ctx, domain.AuditEntry{
			At:     evt.At,
			Kind:   AuditKindConnection,
			Detail: evt.Message,
		})
	}
	return nil
}
