package domain

import "fmt"

// ModerationAction is one of the operations a moderator may apply to a
// visible comment.
type ModerationAction string

const (
	ActionHighlight  ModerationAction = "highlight"
	ActionQuarantine ModerationAction = "quarantine"
	ActionDelete     ModerationAction = "delete"
)

// ParseAction maps a textual command to a ModerationAction.
func ParseAction(s string) (ModerationAction, error) {
	switch ModerationAction(s) {
	case ActionHighlight, ActionQuarantine, ActionDelete:
		return ModerationAction(s), nil
	default:
		return "", fmt.Errorf("unknown moderation action %q", s)
	}
}
