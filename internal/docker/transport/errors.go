package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// ErrorKind classifies socket-level failures.
type ErrorKind int

const (
	// KindConnect covers a missing socket file or a refused connection.
	KindConnect ErrorKind = iota
	// KindRead is a failure while reading the response.
	KindRead
	// KindWrite is a failure while sending the request.
	KindWrite
	// KindTimeout is a connect or I/O deadline expiring.
	KindTimeout
	// KindCanceled means the caller canceled the operation and the
	// connection was torn down underneath an in-flight read or write.
	KindCanceled
	// KindClosed is a use of an already-closed connection.
	KindClosed
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindClosed:
		return "closed"
	}
	return "unknown"
}

// Error is a socket-level failure. It wraps the underlying cause so
// callers can still use errors.Is with net and context sentinels.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transport %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("transport %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the error was caused by a deadline expiring.
func (e *Error) Timeout() bool { return e.Kind == KindTimeout }

// Canceled reports whether the error was caused by caller cancellation.
func (e *Error) Canceled() bool { return e.Kind == KindCanceled }

// IsConnect reports whether err is a transport error from the initial
// connect. Read-only operations may be retried once on these; nothing
// was sent, so no side effect can have been applied.
func IsConnect(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == KindConnect
}

// wrapErr classifies err for the given op, preferring cancellation over
// the I/O error produced by closing the socket underneath a read.
func wrapErr(op string, err error, ctx context.Context) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	kind := KindRead
	switch op {
	case "connect":
		kind = KindConnect
	case "write":
		kind = KindWrite
	}
	if ctx != nil && ctx.Err() != nil {
		return &Error{Kind: KindCanceled, Op: op, Err: ctx.Err()}
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
		return &Error{Kind: KindClosed, Op: op, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// ProtocolError is a malformed HTTP status line, header section, or
// chunk framing in the daemon's response.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

func protocolErrorf(format string, args ...any) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}
