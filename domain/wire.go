package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// WireComment is the JSON frame exchanged with the backend. Optional
// fields let a backend pre-moderate comments before broadcast.
type WireComment struct {
	ID          string `json:"id"        validate:"required"`
	Username    string `json:"username"  validate:"required"`
	Text        string `json:"text"      validate:"required,max=200"`
	Timestamp   string `json:"timestamp" validate:"required"`
	Highlighted *bool  `json:"highlighted,omitempty"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=normal quarantined"`
}

// DecodeWire parses and validates one inbound frame. Every failure is
// wrapped in ErrMalformedPayload so callers can drop uniformly.
func DecodeWire(payload []byte) (Comment, error) {
	var w WireComment
	if err := json.Unmarshal(payload, &w); err != nil {
		return Comment{}, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	if err := validate.Struct(w); err != nil {
		return Comment{}, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}
	at, err := parseTimestamp(w.Timestamp)
	if err != nil {
		return Comment{}, fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err)
	}

	c := Comment{
		ID:        w.ID,
		Username:  w.Username,
		Text:      w.Text,
		CreatedAt: at,
	}
	if w.Highlighted != nil {
		c.Highlighted = *w.Highlighted
	}
	if w.Status == StatusQuarantined.String() {
		c.Status = StatusQuarantined
	}
	return c, nil
}

// EncodeWire renders a comment as an outbound frame.
func EncodeWire(c Comment) ([]byte, error) {
	w := WireComment{
		ID:        c.ID,
		Username:  c.Username,
		Text:      c.Text,
		Timestamp: c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if c.Highlighted {
		h := true
		w.Highlighted = &h
	}
	if c.Status == StatusQuarantined {
		w.Status = c.Status.String()
	}
	return json.Marshal(w)
}

// parseTimestamp accepts RFC 3339 or a decimal epoch-milliseconds string.
func parseTimestamp(s string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return at, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is neither RFC 3339 nor epoch millis", s)
	}
	return time.UnixMilli(ms), nil
}
