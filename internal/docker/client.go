package docker

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/keklick1337/GhostContainers/internal/docker/jsonstream"
	"github.com/keklick1337/GhostContainers/internal/docker/transport"
)

const (
	// DefaultConnectTimeout bounds the dial of the daemon socket for
	// every operation.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultRequestTimeout bounds finite request/response exchanges.
	// Streaming operations (logs, events, stats, attach) are exempt
	// and stay open until the consumer stops them.
	DefaultRequestTimeout = 60 * time.Second
)

// Options configures a Client. The zero value targets the default
// daemon socket with the default timeouts; settings always arrive here
// explicitly rather than through process-wide state.
type Options struct {
	// SocketPath is the daemon's Unix socket. Empty selects the
	// platform default.
	SocketPath string

	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// Client issues typed operations against the Docker Engine API. Each
// operation opens its own connection for the duration of one exchange,
// so concurrent calls from independent goroutines never interleave on
// a socket.
type Client struct {
	http *transport.Client
}

// New creates a Client for the daemon at opts.SocketPath. It fails up
// front when the socket file does not exist, which is the common
// misconfiguration.
func New(opts Options) (*Client, error) {
	if opts.SocketPath == "" {
		opts.SocketPath = transport.DefaultSocketPath
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	if _, err := os.Stat(opts.SocketPath); err != nil {
		return nil, fmt.Errorf("docker socket not found at %q: %w\nEnsure the Docker daemon is running, or point the client at the right socket", opts.SocketPath, err)
	}

	return &Client{
		http: transport.NewClient(transport.Config{
			SocketPath:     opts.SocketPath,
			ConnectTimeout: opts.ConnectTimeout,
			IOTimeout:      opts.RequestTimeout,
		}),
	}, nil
}

// Close releases the client. Connections are per-operation and never
// pooled, so there is nothing to tear down; this exists so callers can
// treat the client like any other closable resource.
func (c *Client) Close() error { return nil }

// do performs one finite exchange, wrapping transport failures with
// the operation's method and path. A read-only GET is retried once
// when the initial connect fails, since nothing was sent; mutating
// operations are never retried.
func (c *Client) do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	resp, err := c.http.Do(ctx, req)
	if err != nil && req.Method == "GET" && req.Body == nil && transport.IsConnect(err) {
		resp, err = c.http.Do(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return resp, nil
}

// exchange materializes the body of a finite exchange and maps non-2xx
// statuses onto APIError.
func (c *Client) exchange(ctx context.Context, req *transport.Request) ([]byte, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := resp.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(req.Method, req.Path, resp.StatusCode, data)
	}
	return data, nil
}

// doJSON runs a finite exchange with an optional JSON payload and an
// optional JSON-decoded result.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	req := transport.NewRequest(method, path)
	if query != nil {
		req.Query = query
	}
	if payload != nil {
		data, err := jsonstream.Encode(payload)
		if err != nil {
			return fmt.Errorf("%s %s: failed to encode request body: %w", method, path, err)
		}
		req.SetBody(data, "application/json")
	}
	body, err := c.exchange(ctx, req)
	if err != nil {
		return err
	}
	if out != nil && len(body) > 0 {
		if err := jsonstream.DecodeOne(body, out); err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}
	return nil
}

// stream opens a long-lived exchange and hands the framed body to the
// caller. The body holds its connection until closed; the consumer is
// expected to drain promptly so the daemon side does not stall.
func (c *Client) stream(ctx context.Context, method, path string, query url.Values, payload any) (io.ReadCloser, error) {
	req := transport.NewRequest(method, path)
	if query != nil {
		req.Query = query
	}
	if payload != nil {
		data, err := jsonstream.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("%s %s: failed to encode request body: %w", method, path, err)
		}
		req.SetBody(data, "application/json")
	}
	resp, err := c.http.DoStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := resp.Bytes()
		return nil, newAPIError(method, path, resp.StatusCode, data)
	}
	return resp.Body, nil
}

// hijack upgrades an exchange to a raw duplex connection for attach
// and interactive exec.
func (c *Client) hijack(ctx context.Context, path string, query url.Values, payload any) (*transport.HijackedConn, error) {
	req := transport.NewRequest("POST", path)
	if query != nil {
		req.Query = query
	}
	if payload != nil {
		data, err := jsonstream.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("POST %s: failed to encode request body: %w", path, err)
		}
		req.SetBody(data, "application/json")
	}
	hc, resp, err := c.http.DoHijack(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	if hc == nil {
		data, _ := resp.Bytes()
		return nil, newAPIError("POST", path, resp.StatusCode, data)
	}
	return hc, nil
}

// encodeFilters renders the daemon's filters query parameter, a JSON
// map of filter name to accepted values.
func encodeFilters(filters map[string][]string) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	data, err := jsonstream.Encode(filters)
	if err != nil {
		return "", fmt.Errorf("failed to encode filters: %w", err)
	}
	return string(data), nil
}
