package docker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/keklick1337/GhostContainers/internal/docker/jsonstream"
)

// ErrorKind subtypes a well-formed non-2xx daemon response.
type ErrorKind int

const (
	// NotFound is a 404: the named container, image, or network does
	// not exist.
	NotFound ErrorKind = iota
	// Conflict is a 409, such as starting a container that is already
	// running or removing one that is not stopped.
	Conflict
	// DaemonFault is any 5xx.
	DaemonFault
	// Unexpected is every other non-2xx status.
	Unexpected
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case DaemonFault:
		return "daemon fault"
	}
	return "unexpected"
}

// APIError carries the daemon's own message text plus the method and
// path of the operation that triggered it.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docker API %s %s: %s (status %d): %s",
		e.Method, e.Path, e.Kind, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a daemon 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == NotFound
}

// IsConflict reports whether err is a daemon 409.
func IsConflict(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == Conflict
}

func kindForStatus(code int) ErrorKind {
	switch {
	case code == 404:
		return NotFound
	case code == 409:
		return Conflict
	case code >= 500:
		return DaemonFault
	}
	return Unexpected
}

// newAPIError builds an APIError from a non-2xx response body, which
// the daemon normally sends as {"message": "..."}.
func newAPIError(method, path string, status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	message := strings.TrimSpace(string(body))
	if err := jsonstream.DecodeOne(body, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}
	return &APIError{
		Kind:       kindForStatus(status),
		StatusCode: status,
		Message:    message,
		Method:     method,
		Path:       path,
	}
}
