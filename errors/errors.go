package errors

import "fmt"

var (
	// Send path, returned synchronously to the caller.
	ErrNotConnected    = fmt.Errorf("channel is not open")
	ErrConsentRequired = fmt.Errorf("consent has not been granted")
	ErrRateLimited     = fmt.Errorf("send cooldown has not elapsed")
	ErrEmptyOrInvalid  = fmt.Errorf("comment text is empty or too long")

	// Inbound stream, logged and dropped, never surfaced to the embedder.
	ErrMalformedPayload = fmt.Errorf("payload is not a valid comment frame")
	ErrClassification   = fmt.Errorf("content classification failed")

	// Connection lifecycle.
	ErrUnreachable = fmt.Errorf("backend unreachable, retries exhausted")

	// Runtime.
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
	ErrOnlyDenylistFiles = fmt.Errorf("denylist directory contains directories")
)
