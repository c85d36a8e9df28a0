package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps network failures: DNS, refused connections, timeouts
	ErrTransport = errors.New("remote: transport failure")
	// ErrDecode wraps response bodies that are not the expected JSON
	ErrDecode = errors.New("remote: malformed response")
	// ErrCircuitOpen is returned without calling the remote service
	ErrCircuitOpen = errors.New("remote: circuit breaker open")
)

// StatusError is a non-2xx response
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote %s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("remote %s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// outcome is the metrics label for err
func outcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.As(err, &se):
		return "status"
	default:
		return "transport"
	}
}
