package internal

import (
	"fmt"
	"strings"
	"time"
)

// Config carries every knob of the overlay process. Only the endpoint
// is mandatory; everything else has a sane default and the display
// duration is clamped by the controller.
type Config struct {
	Endpoint string `env:"OVERLAY_ENDPOINT,required=true"`
	Username string `env:"OVERLAY_USERNAME"`

	Capacity        int           `env:"OVERLAY_CAPACITY,default=50"`
	DisplayDuration time.Duration `env:"OVERLAY_DISPLAY_DURATION,default=5s"`
	SendCooldown    time.Duration `env:"OVERLAY_SEND_COOLDOWN,default=2s"`

	ReconnectBase     time.Duration `env:"OVERLAY_RECONNECT_BASE,default=1s"`
	ReconnectMaxDelay time.Duration `env:"OVERLAY_RECONNECT_MAX_DELAY,default=30s"`
	ReconnectAttempts int           `env:"OVERLAY_RECONNECT_ATTEMPTS,default=5"`

	ModerationEnabled bool `env:"OVERLAY_MODERATION_ENABLED,default=true"`
	Privileged        bool `env:"OVERLAY_PRIVILEGED,default=false"`
	ComplianceMode    bool `env:"OVERLAY_COMPLIANCE_MODE,default=false"`

	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	// Empty paths disable the badger-backed stores and the review
	// index respectively.
	BadgerFilepath string `env:"BADGER_FILEPATH"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH"`

	MetricsAddr string `env:"METRICS_ADDR,default=:9180"`
	LogLevel    string `env:"LOG_LEVEL,default=INFO"`

	TelemetryInterval time.Duration `env:"METRIC_INTERVAL,default=5s"`
}

// Validate rejects values no component could run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("OVERLAY_ENDPOINT must not be blank")
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("OVERLAY_CAPACITY must be positive, got %d", c.Capacity)
	}
	if c.ReconnectAttempts <= 0 {
		return fmt.Errorf("OVERLAY_RECONNECT_ATTEMPTS must be positive, got %d", c.ReconnectAttempts)
	}
	if c.ReconnectBase <= 0 || c.ReconnectMaxDelay < c.ReconnectBase {
		return fmt.Errorf("reconnect delays must satisfy 0 < base <= max, got base=%s max=%s",
			c.ReconnectBase, c.ReconnectMaxDelay)
	}
	return nil
}

// ClampedDisplayDuration pulls the configured display window into the
// recommended 1s–30s range.
func (c Config) ClampedDisplayDuration() time.Duration {
	switch {
	case c.DisplayDuration < time.Second:
		return time.Second
	case c.DisplayDuration > 30*time.Second:
		return 30 * time.Second
	default:
		return c.DisplayDuration
	}
}

// CharacterRune converts the single-character replacement setting
// into a rune, rejecting multi-character values.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must contain a single character, got %q", str)
	}
	return r[0], nil
}
