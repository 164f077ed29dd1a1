package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

// Client issues HTTP/1.1 exchanges against the daemon socket. Each
// exchange dials its own connection, so a Client is safe for use from
// any number of goroutines at once.
type Client struct {
	cfg Config
}

// NewClient creates a client for the socket described by cfg.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Do performs a finite request/response exchange. The configured
// IOTimeout bounds the whole exchange and expiry surfaces as a
// timeout-kind *Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.roundTrip(ctx, req, false)
}

// DoStream performs an exchange whose response body may stay open
// indefinitely (logs, events, stats). No read deadline is applied; the
// consumer paces reads and cancels via ctx when done.
func (c *Client) DoStream(ctx context.Context, req *Request) (*Response, error) {
	return c.roundTrip(ctx, req, true)
}

func (c *Client) roundTrip(ctx context.Context, req *Request, streaming bool) (*Response, error) {
	conn, err := Dial(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	stop := watchCancel(ctx, conn)

	handoff := false
	defer func() {
		if !handoff {
			stop()
			conn.Close()
		}
	}()

	if !streaming && c.cfg.IOTimeout > 0 {
		if err := conn.setDeadline(c.cfg.IOTimeout); err != nil {
			return nil, wrapErr("write", err, ctx)
		}
	}

	log.Debug().Str("method", req.Method).Str("path", req.Path).Bool("stream", streaming).Msg("docker request")

	bw := bufio.NewWriter(conn)
	if err := req.write(bw); err != nil {
		return nil, wrapErr("write", err, ctx)
	}
	if err := bw.Flush(); err != nil {
		return nil, wrapErr("write", err, ctx)
	}

	br := bufio.NewReader(conn)
	resp, err := readResponse(br, ctx)
	if err != nil {
		return nil, err
	}

	chunked, length, err := bodyFraming(req.Method, resp.StatusCode, resp.Header)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	switch {
	case chunked:
		body = newChunkedReader(br)
	case length == 0:
		body = emptyReader{}
	case length > 0:
		body = &fixedLengthReader{br: br, remaining: length}
	default:
		body = br
	}
	resp.ContentLength = length
	resp.Body = &bodyCloser{r: body, conn: conn, stop: stop, ctx: ctx}

	handoff = true
	return resp, nil
}

// readResponse parses the status line and headers. The body framing is
// left to the caller so a malformed head never yields a partially
// populated Response.
func readResponse(br *bufio.Reader, ctx context.Context) (*Response, error) {
	proto, code, reason, err := readStatusLine(br)
	if err != nil {
		return nil, classifyParseErr(err, ctx)
	}
	header, err := readHeaders(br)
	if err != nil {
		return nil, classifyParseErr(err, ctx)
	}
	return &Response{
		StatusCode: code,
		Reason:     reason,
		Proto:      proto,
		Header:     header,
	}, nil
}

// classifyParseErr keeps framing faults as *ProtocolError and wraps
// socket faults as *Error.
func classifyParseErr(err error, ctx context.Context) error {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return err
	}
	return wrapErr("read", err, ctx)
}

// watchCancel closes conn when ctx is canceled so any in-flight read
// fails immediately instead of blocking. The returned stop func ends
// the watch once the exchange is over.
func watchCancel(ctx context.Context, conn *Conn) (stop func()) {
	if ctx == nil || ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

// fixedLengthReader reads exactly remaining bytes; a peer close before
// that is a framing fault, not a clean end of body.
type fixedLengthReader struct {
	br        *bufio.Reader
	remaining int64
}

func (fr *fixedLengthReader) Read(p []byte) (int, error) {
	if fr.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > fr.remaining {
		p = p[:fr.remaining]
	}
	n, err := fr.br.Read(p)
	fr.remaining -= int64(n)
	if err == io.EOF && fr.remaining > 0 {
		err = protocolErrorf("body truncated with %d bytes outstanding", fr.remaining)
	}
	if err == io.EOF {
		err = nil
	}
	return n, err
}

// bodyCloser ties a framed body reader to its connection. Closing it
// discards the connection; an interrupted body is never resumed and
// the connection never serves another request.
type bodyCloser struct {
	r    io.Reader
	conn *Conn
	stop func()
	ctx  context.Context
}

func (b *bodyCloser) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		err = classifyParseErr(err, b.ctx)
	}
	return n, err
}

func (b *bodyCloser) Close() error {
	b.stop()
	return b.conn.Close()
}

// HijackedConn is the raw duplex connection left after an upgrade
// exchange (attach, interactive exec). Reads go through the buffered
// reader so bytes the daemon sent alongside its response head are not
// lost.
type HijackedConn struct {
	conn *Conn
	br   *bufio.Reader
	stop func()
}

func (h *HijackedConn) Read(p []byte) (int, error)  { return h.br.Read(p) }
func (h *HijackedConn) Write(p []byte) (int, error) { return h.conn.Write(p) }

// CloseWrite half-closes the connection so the daemon sees EOF on its
// stdin while output keeps flowing.
func (h *HijackedConn) CloseWrite() error {
	if uc, ok := h.conn.Conn.(*net.UnixConn); ok {
		return uc.CloseWrite()
	}
	return errors.New("connection does not support half-close")
}

func (h *HijackedConn) Close() error {
	h.stop()
	return h.conn.Close()
}

// DoHijack performs an upgrade exchange. On a 101 (or a 200 from older
// daemons) the connection is handed to the caller as a HijackedConn
// and the returned Response has no body. On any other status the
// regular Response is returned with its body intact so the caller can
// map the daemon's error.
func (c *Client) DoHijack(ctx context.Context, req *Request) (*HijackedConn, *Response, error) {
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "tcp")

	conn, err := Dial(ctx, c.cfg)
	if err != nil {
		return nil, nil, err
	}
	stop := watchCancel(ctx, conn)

	handoff := false
	defer func() {
		if !handoff {
			stop()
			conn.Close()
		}
	}()

	bw := bufio.NewWriter(conn)
	if err := req.write(bw); err != nil {
		return nil, nil, wrapErr("write", err, ctx)
	}
	if err := bw.Flush(); err != nil {
		return nil, nil, wrapErr("write", err, ctx)
	}

	br := bufio.NewReader(conn)
	resp, err := readResponse(br, ctx)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode == 101 || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		handoff = true
		return &HijackedConn{conn: conn, br: br, stop: stop}, resp, nil
	}

	chunked, length, err := bodyFraming(req.Method, resp.StatusCode, resp.Header)
	if err != nil {
		return nil, nil, err
	}
	var body io.Reader
	switch {
	case chunked:
		body = newChunkedReader(br)
	case length >= 0:
		body = &fixedLengthReader{br: br, remaining: length}
	default:
		body = br
	}
	resp.ContentLength = length
	resp.Body = &bodyCloser{r: body, conn: conn, stop: stop, ctx: ctx}
	handoff = true
	return nil, resp, nil
}
