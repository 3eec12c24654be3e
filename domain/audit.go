package domain

import "time"

// AuditEntry is one line of the append-only decision trail: either a
// moderation call or a terminal connection incident.
type AuditEntry struct {
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Kind      string    `json:"kind"`
	CommentID string    `json:"comment_id,omitempty"`
	Action    string    `json:"action,omitempty"`
	Found     bool      `json:"found"`
	Detail    string    `json:"detail,omitempty"`
}
