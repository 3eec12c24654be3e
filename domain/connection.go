package domain

// ConnectionState is the lifecycle phase of the duplex channel.
type ConnectionState uint8

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}

// ConnectionInfo is a snapshot of the manager state exposed to embedders.
type ConnectionInfo struct {
	State    ConnectionState
	Endpoint string
	Attempts int    // consecutive failed dials since the last open
	LastErr  string // empty when the channel is healthy
}
