package transport

import (
	"context"
	"net"
	"os"
	"sync"
	"time"
)

// DefaultSocketPath is the daemon's standard Unix socket location.
const DefaultSocketPath = "/var/run/docker.sock"

// Config describes how to reach the daemon. It is passed explicitly
// into Dial and NewClient; there is no process-wide socket state.
type Config struct {
	// SocketPath is the filesystem path of the daemon's Unix socket.
	SocketPath string

	// ConnectTimeout bounds the initial dial. Zero means no bound.
	ConnectTimeout time.Duration

	// IOTimeout bounds each finite request/response exchange. It is
	// not applied to streaming requests, which may stay open for as
	// long as the consumer keeps reading.
	IOTimeout time.Duration
}

func (c Config) socketPath() string {
	if c.SocketPath == "" {
		return DefaultSocketPath
	}
	return c.SocketPath
}

// Conn is a single connection to the daemon. It belongs to exactly one
// request/response exchange and is discarded afterwards, never pooled.
type Conn struct {
	net.Conn

	closeOnce sync.Once
	closeErr  error
}

// Dial opens a fresh connection to the daemon's Unix socket. A missing
// socket file or a refused connection comes back as a connect-kind
// *Error.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	path := cfg.socketPath()
	if _, err := os.Stat(path); err != nil {
		return nil, &Error{Kind: KindConnect, Op: "connect", Err: err}
	}

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, wrapErr("connect", err, ctx)
	}

	return &Conn{Conn: raw}, nil
}

// Close shuts the connection down. It is idempotent; the second and
// later calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.Conn.Close()
	})
	return c.closeErr
}

// setDeadline bounds all pending and future I/O on the connection.
// A zero duration clears the deadline.
func (c *Conn) setDeadline(d time.Duration) error {
	if d == 0 {
		return c.Conn.SetDeadline(time.Time{})
	}
	return c.Conn.SetDeadline(time.Now().Add(d))
}
