package moderation

import "github.com/GiancarloEsposito06/Live-comments-overlay/domain"

// Queue holds quarantined comments awaiting review. It is unbounded
// and entries only leave through explicit removal. The queue does not
// lock itself; the owning controller serializes access.
type Queue struct {
	entries []domain.Comment
	index   map[string]struct{}
}

func NewQueue() *Queue {
	return &Queue{index: make(map[string]struct{})}
}

// Push appends a comment in arrival order. Pushing an id already held
// is a no-op, so repeated quarantines never duplicate an entry.
func (q *Queue) Push(c domain.Comment) bool {
	if _, ok := q.index[c.ID]; ok {
		return false
	}
	c.Status = domain.StatusQuarantined
	q.entries = append(q.entries, c)
	q.index[c.ID] = struct{}{}
	return true
}

// Remove drops the entry with the given id. Unknown ids are a no-op.
func (q *Queue) Remove(id string) bool {
	if _, ok := q.index[id]; !ok {
		return false
	}
	delete(q.index, id)
	for i, c := range q.entries {
		if c.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether an id is queued.
func (q *Queue) Contains(id string) bool {
	_, ok := q.index[id]
	return ok
}

// Snapshot returns a copy of the queue in arrival order.
func (q *Queue) Snapshot() []domain.Comment {
	out := make([]domain.Comment, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Clear empties the queue. Used on controller teardown.
func (q *Queue) Clear() {
	q.entries = nil
	q.index = make(map[string]struct{})
}
