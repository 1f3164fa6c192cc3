package alquimia

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError wraps a network-level failure (unreachable host, timeout).
// The operation is never auto-retried and previously displayed data stays put.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: fallo de red: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError carries a non-2xx response. Message is the server-provided
// error text when present, surfaced verbatim to the user.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: servidor respondió %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: servidor respondió %d", e.Op, e.Status)
}

// AuthExpired reports whether the server rejected the session credential.
func (e *ServerError) AuthExpired() bool { return e.Status == http.StatusUnauthorized }

// Conflict reports a duplicate-style rejection, e.g. a repeated unique name.
func (e *ServerError) Conflict() bool { return e.Status == http.StatusConflict }

// IsAuthExpired reports whether err is a server rejection of the credential.
func IsAuthExpired(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.AuthExpired()
}
