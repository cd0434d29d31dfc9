package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrAgendaUIDRequired is returned when a query names no agenda.
	ErrAgendaUIDRequired = errors.New("remote: agenda uid required")
	// ErrBaseURLRequired is returned when the fetcher has no API endpoint.
	ErrBaseURLRequired = errors.New("remote: base url required")
)

const (
	transportFailedCode = "REMOTE_TRANSPORT_FAILED"
	decodeFailedCode    = "REMOTE_DECODE_FAILED"
)

// StatusError reports an unexpected HTTP status from the remote API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: unexpected status %d", e.StatusCode)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
