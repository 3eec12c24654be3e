package moderation

import (
	"testing"
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/stretchr/testify/require"
)

func quarantined(id, text string) domain.Comment {
	return domain.Comment{
		ID:        id,
		Username:  "viewer",
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func TestQueue_PushKeepsArrivalOrder(t *testing.T) {
	req := require.New(t)
	q := NewQueue()

	req.True(q.Push(quarantined("a", "first")))
	req.True(q.Push(quarantined("b", "second")))
	req.True(q.Push(quarantined("c", "third")))

	snapshot := q.Snapshot()
	req.Len(snapshot, 3)
	req.Equal("a", snapshot[0].ID)
	req.Equal("b", snapshot[1].ID)
	req.Equal("c", snapshot[2].ID)
	for _, c := range snapshot {
		req.Equal(domain.StatusQuarantined, c.Status)
	}
}

func TestQueue_PushSameIDIsIdempotent(t *testing.T) {
	req := require.New(t)
	q := NewQueue()

	req.True(q.Push(quarantined("a", "first")))
	req.False(q.Push(quarantined("a", "first again")))
	req.Equal(1, q.Len())
}

func TestQueue_RemoveUnknownIDIsNoop(t *testing.T) {
	req := require.New(t)
	q := NewQueue()

	q.Push(quarantined("a", "first"))
	req.False(q.Remove("ghost"))
	req.True(q.Remove("a"))
	req.False(q.Remove("a"))
	req.Equal(0, q.Len())
}

func TestQueue_SnapshotIsACopy(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	q.Push(quarantined("a", "first"))

	snapshot := q.Snapshot()
	snapshot[0].Text = "mutated"

	req.Equal("first", q.Snapshot()[0].Text)
}

func TestQueue_Clear(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	q.Push(quarantined("a", "first"))
	q.Push(quarantined("b", "second"))

	q.Clear()
	req.Equal(0, q.Len())
	req.False(q.Contains("a"))

	// Still usable after clearing
	req.True(q.Push(quarantined("c", "third")))
	req.Equal(1, q.Len())
}
