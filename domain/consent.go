package domain

// ConsentState captures the viewer's stored participation decision.
// The send path consults it only when compliance mode is enabled.
type ConsentState uint8

const (
	ConsentUnknown ConsentState = iota
	ConsentGranted
	ConsentDeclined
)

func (c ConsentState) String() string {
	switch c {
	case ConsentGranted:
		return "granted"
	case ConsentDeclined:
		return "declined"
	default:
		return "unknown"
	}
}
