package transport

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Request is one HTTP/1.1 request to the daemon. Body may be nil; when
// it is set, ContentLength must hold the exact number of bytes it will
// produce so the request can carry a Content-Length header.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header Header

	Body          io.Reader
	ContentLength int64
}

// NewRequest builds a request for the given method and path.
func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path, Query: url.Values{}}
}

// SetBody attaches a fully materialized body.
func (r *Request) SetBody(data []byte, contentType string) {
	r.Body = strings.NewReader(string(data))
	r.ContentLength = int64(len(data))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
}

func (r *Request) target() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// write sends the request line, headers, and body over w.
func (r *Request) write(w io.Writer) error {
	var head strings.Builder
	fmt.Fprintf(&head, "%s %s HTTP/1.1\r\n", r.Method, r.target())

	// The socket has no real host; the daemon only needs the header to
	// be present.
	if !r.Header.Has("Host") {
		r.Header.Set("Host", "docker")
	}
	if r.Body != nil && !r.Header.Has("Content-Length") {
		r.Header.Set("Content-Length", strconv.FormatInt(r.ContentLength, 10))
	}
	r.Header.writeTo(&head)
	head.WriteString("\r\n")

	if _, err := io.WriteString(w, head.String()); err != nil {
		return err
	}
	if r.Body != nil {
		if _, err := io.Copy(w, r.Body); err != nil {
			return err
		}
	}
	return nil
}
