// Package domain contains core concepts of the comment overlay.
// Comments are immutable values; moderation produces a new logical
// state for the same id. No runtime, network, or UI logic should be
// added here.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextRunes bounds the comment body, counted in code points.
const MaxTextRunes = 200

// Status is the moderation status carried by a comment.
type Status uint8

const (
	StatusNormal Status = iota
	StatusQuarantined
)

func (s Status) String() string {
	if s == StatusQuarantined {
		return "quarantined"
	}
	return "normal"
}

// Comment represents one short text comment of the live stream.
type Comment struct {
	ID          string // opaque, unique within the stream
	Username    string
	Text        string
	CreatedAt   time.Time
	Highlighted bool
	Status      Status
	Language    string // ISO 639-1 hint from classification, may be empty
}

// ValidText reports whether a comment body is sendable: non-blank
// after trimming and at most MaxTextRunes code points.
func ValidText(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return utf8.RuneCountInString(text) <= MaxTextRunes
}
