package runtime

import (
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain/event"
	"github.com/GiancarloEsposito06/Live-comments-overlay/transport"
)

// admit funnels one raw inbound frame through the admission pipeline.
// The steps short-circuit on the first terminal outcome and their
// order is deliberate: nothing reaches the overlay before the filter
// has spoken.
//
//  0. frame must sniff as JSON;
//  1. decode + structural validation, failures logged and dropped;
//  2. CommentReceived fires for every structurally valid comment;
//  3. classification, failing closed on filter errors. Flagged
//     comments are dropped when moderation is off, quarantined when it
//     is on, and additionally shown censored to a privileged viewer;
//  4. clean comments enter the overlay and get an expiry timer.
func (c *Controller) admit(payload []byte) {
	if !transport.IsJSONFrame(payload) {
		c.log.Debug("dropping non-JSON frame", "bytes", len(payload))
		c.monitor.IncrDropped()
		return
	}
	comment, err := domain.DecodeWire(payload)
	if err != nil {
		c.log.Debug("dropping malformed frame", "error", err)
		c.monitor.IncrDropped()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}

	c.monitor.IncrReceived()
	c.dispatch(event.CommentReceived{Comment: comment})

	verdict, err := c.filter.Classify(comment.Text)
	if err != nil {
		// Fail closed: an unclassifiable comment is a flagged comment.
		c.log.Warn("classification failed, flagging", "id", comment.ID, "error", err)
		verdict.Flagged = true
	}
	comment.Language = verdict.Language

	// A backend may pre-quarantine before broadcast; treat that the
	// same as a local flag.
	if verdict.Flagged || comment.Status == domain.StatusQuarantined {
		c.admitFlagged(comment, verdict.Matches)
		return
	}

	c.insertVisible(comment)
	c.monitor.SetSizes(c.overlay.Len(), c.queue.Len())
}

// admitFlagged routes a flagged comment. Caller holds the lock.
func (c *Controller) admitFlagged(comment domain.Comment, matches []string) {
	c.monitor.IncrFiltered()
	c.dispatch(event.CommentFiltered{Comment: comment, Matches: matches})

	if !c.opts.ModerationEnabled {
		c.monitor.IncrDropped()
		return
	}

	comment.Status = domain.StatusQuarantined
	c.queue.Push(comment)

	// Only a privileged viewer ever sees a quarantined comment, and
	// only in its censored rendering; the queue keeps the original.
	if c.opts.Privileged {
		shown := comment
		shown.Text, _ = c.filter.Censor(comment.Text)
		c.insertVisible(shown)
	}
	c.monitor.SetSizes(c.overlay.Len(), c.queue.Len())
}

// insertVisible puts a comment on the overlay, disarms the timers of
// anything evicted to make room, and arms the newcomer's expiry.
// Caller holds the lock.
func (c *Controller) insertVisible(comment domain.Comment) {
	for _, id := range c.overlay.Insert(comment) {
		if timer, ok := c.timers[id]; ok {
			timer.Stop()
			delete(c.timers, id)
		}
	}
	c.scheduleExpiry(comment.ID)
}
