// Package event defines the happenings the controller publishes to its
// sinks. Sinks receive every event and pick what they care about.
package event

import (
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
)

const (
	KindCommentReceived   = "comment_received"
	KindCommentFiltered   = "comment_filtered"
	KindModerationApplied = "moderation_applied"
	KindConnectionOpened  = "connection_opened"
	KindConnectionClosed  = "connection_closed"
	KindConnectionErrored = "connection_errored"
)

type DomainEvent interface {
	Kind() string
}

// CommentReceived fires for every structurally valid inbound comment,
// before classification.
type CommentReceived struct {
	Comment domain.Comment
}

func (CommentReceived) Kind() string { return KindCommentReceived }

// CommentFiltered fires when classification flags a comment.
type CommentFiltered struct {
	Comment domain.Comment
	Matches []string
}

func (CommentFiltered) Kind() string { return KindCommentFiltered }

// ModerationApplied fires for every moderation call, hit or miss, so an
// audit surface can record the full decision trail.
type ModerationApplied struct {
	CommentID string
	Action    domain.ModerationAction
	Found     bool
	At        time.Time
}

func (ModerationApplied) Kind() string { return KindModerationApplied }

type ConnectionOpened struct {
	Endpoint string
	Attempt  int
	At       time.Time
}

func (ConnectionOpened) Kind() string { return KindConnectionOpened }

// ConnectionClosed fires when the channel goes down. Intentional marks
// a local Close; the manager will not redial after it.
type ConnectionClosed struct {
	Reason      string
	Intentional bool
	At          time.Time
}

func (ConnectionClosed) Kind() string { return KindConnectionClosed }

// ConnectionErrored fires on dial failures and, with Terminal set,
// exactly once when the retry budget is exhausted.
type ConnectionErrored struct {
	Message  string
	Attempt  int
	Terminal bool
	At       time.Time
}

func (ConnectionErrored) Kind() string { return KindConnectionErrored }
