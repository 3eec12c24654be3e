package sink

import (
	"context"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain/event"
	"github.com/GiancarloEsposito06/Live-comments-overlay/review"
)

// ReviewSink mirrors the quarantine life of a comment into the
// full-text review index: flagged comments become searchable, deleted
// ones drop out.
type ReviewSink struct {
	index *review.Index
}

func NewReviewSink(index *review.Index) ReviewSink {
	return ReviewSink{index: index}
}

func (s ReviewSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.CommentFiltered:
		return s.index.Add(evt.Comment)
	case event.ModerationApplied:
		if evt.Action == domain.ActionDelete && evt.Found {
			return s.index.Delete(evt.CommentID)
		}
	}
	return nil
}
