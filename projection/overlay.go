// Package projection builds the local view of the comment stream from
// observed events. Handles ordering, capacity, and moderation marks.
// Does not emit events or interact with UI directly.
package projection

import (
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
)

// DefaultCapacity bounds the overlay when no capacity is configured.
const DefaultCapacity = 50

// Overlay holds the comments currently visible, oldest first. The
// overlay does not lock itself; the owning controller serializes
// access. Capacity is enforced on insert by evicting from the front,
// so a burst can never grow the visible set past its bound.
type Overlay struct {
	capacity int
	comments []domain.Comment
}

func NewOverlay(capacity int) *Overlay {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Overlay{capacity: capacity}
}

// Insert appends a comment and returns the ids evicted to make room.
// Inserting an id already present replaces that entry in place.
func (o *Overlay) Insert(c domain.Comment) []string {
	if i := o.find(c.ID); i >= 0 {
		o.comments[i] = c
		return nil
	}
	o.comments = append(o.comments, c)

	var evicted []string
	for len(o.comments) > o.capacity {
		evicted = append(evicted, o.comments[0].ID)
		o.comments = o.comments[1:]
	}
	return evicted
}

// Remove drops the comment with the given id. Removing an id that is
// not present is a no-op, so expiry firing after an eviction stays
// harmless.
func (o *Overlay) Remove(id string) bool {
	i := o.find(id)
	if i < 0 {
		return false
	}
	o.comments = append(o.comments[:i], o.comments[i+1:]...)
	return true
}

// Highlight marks a visible comment. The mark is sticky until the
// comment leaves the overlay.
func (o *Overlay) Highlight(id string) bool {
	i := o.find(id)
	if i < 0 {
		return false
	}
	o.comments[i].Highlighted = true
	return true
}

// Quarantine flips a visible comment to the quarantined status and
// swaps its body for the given rendering. Quarantining an entry twice
// leaves it as it is.
func (o *Overlay) Quarantine(id, text string) bool {
	i := o.find(id)
	if i < 0 {
		return false
	}
	o.comments[i].Status = domain.StatusQuarantined
	o.comments[i].Text = text
	return true
}

// Get returns the visible comment with the given id.
func (o *Overlay) Get(id string) (domain.Comment, bool) {
	if i := o.find(id); i >= 0 {
		return o.comments[i], true
	}
	return domain.Comment{}, false
}

func (o *Overlay) Contains(id string) bool {
	return o.find(id) >= 0
}

// Snapshot returns a copy of the visible comments, oldest first.
func (o *Overlay) Snapshot() []domain.Comment {
	out := make([]domain.Comment, len(o.comments))
	copy(out, o.comments)
	return out
}

func (o *Overlay) Len() int {
	return len(o.comments)
}

func (o *Overlay) Capacity() int {
	return o.capacity
}

// Clear empties the overlay. Used on controller teardown.
func (o *Overlay) Clear() {
	o.comments = nil
}

func (o *Overlay) find(id string) int {
	for i, c := range o.comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}
