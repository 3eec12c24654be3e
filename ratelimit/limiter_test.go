package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_CooldownWindow(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(2 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Given a first send, the window opens
	req.True(l.Allow("local", t0))

	// Then a second send inside the window is denied
	req.False(l.Allow("local", t0.Add(500*time.Millisecond)))
	req.False(l.Allow("local", t0.Add(1999*time.Millisecond)))

	// Then the send right at the boundary passes
	req.True(l.Allow("local", t0.Add(2*time.Second)))
}

func TestLimiter_DenialDoesNotExtendWindow(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(2 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	req.True(l.Allow("local", t0))

	// Hammering the gate during the cooldown
	for ms := 100; ms < 2000; ms += 300 {
		req.False(l.Allow("local", t0.Add(time.Duration(ms)*time.Millisecond)))
	}

	// The window still ends 2s after the ALLOWED send
	req.True(l.Allow("local", t0.Add(2*time.Second)))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(2 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	req.True(l.Allow("alice", t0))
	req.True(l.Allow("bob", t0))
	req.False(l.Allow("alice", t0.Add(time.Second)))
	req.False(l.Allow("bob", t0.Add(time.Second)))
}

func TestLimiter_Remaining(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(2 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	req.Equal(time.Duration(0), l.Remaining("local", t0))
	l.Allow("local", t0)
	req.Equal(1500*time.Millisecond, l.Remaining("local", t0.Add(500*time.Millisecond)))
	req.Equal(time.Duration(0), l.Remaining("local", t0.Add(3*time.Second)))
}

func TestLimiter_Reset(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(2 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	req.True(l.Allow("local", t0))
	l.Reset("local")
	req.True(l.Allow("local", t0.Add(time.Millisecond)))
}

func TestNewLimiter_DefaultCooldown(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(0)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	req.True(l.Allow("local", t0))
	req.False(l.Allow("local", t0.Add(DefaultCooldown-time.Millisecond)))
	req.True(l.Allow("local", t0.Add(2*DefaultCooldown)))
}
