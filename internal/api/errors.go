package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned for 401 responses after the unauthorized
// handler has run. Callers surface it as a "session expired" condition.
var ErrUnauthorized = errors.New("unauthorized: credential rejected by server")

// Error is a non-2xx response carrying the server-provided message from the
// response envelope. Business-rule failures (permission checks, validation
// on the server side) arrive this way and are shown to the user verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// UserMessage maps an error to the string shown in the status bar: the
// server message when there is one, a generic connectivity message for
// transport failures, and a session-expired message for auth failures.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Session expired, please log in again"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Cannot reach server"
}
