package transport

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// maxLineLength caps status and header lines; the daemon never comes
// close to this, so anything longer is a framing fault.
const maxLineLength = 64 << 10

// Response is a parsed daemon response. Body is a lazy, single-pass
// reader over the framed body; closing it discards the connection.
// Callers that want the whole body materialized use Bytes.
type Response struct {
	StatusCode int
	Reason     string
	Proto      string
	Header     Header

	// ContentLength is the declared body size, or -1 when the body is
	// chunked or delimited by connection close.
	ContentLength int64

	Body io.ReadCloser
}

// Bytes reads the remaining body in full and closes it.
func (r *Response) Bytes() ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// readLine reads one CRLF-terminated line. A clean EOF mid-line is a
// framing fault, not a transport fault.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return "", protocolErrorf("response truncated mid-line")
		}
		return "", err
	}
	if len(line) > maxLineLength {
		return "", protocolErrorf("response line exceeds %d bytes", maxLineLength)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// readStatusLine parses "HTTP/1.1 NNN reason".
func readStatusLine(br *bufio.Reader) (proto string, code int, reason string, err error) {
	line, err := readLine(br)
	if err != nil {
		return "", 0, "", err
	}
	proto, rest, ok := strings.Cut(line, " ")
	if !ok {
		return "", 0, "", protocolErrorf("malformed status line %q", line)
	}
	if proto != "HTTP/1.1" && proto != "HTTP/1.0" {
		return "", 0, "", protocolErrorf("unsupported HTTP version %q", proto)
	}
	codeStr, reason, _ := strings.Cut(rest, " ")
	if len(codeStr) != 3 {
		return "", 0, "", protocolErrorf("malformed status code %q", codeStr)
	}
	code, convErr := strconv.Atoi(codeStr)
	if convErr != nil {
		return "", 0, "", protocolErrorf("malformed status code %q", codeStr)
	}
	return proto, code, reason, nil
}

// readHeaders parses header lines up to and including the terminating
// blank line.
func readHeaders(br *bufio.Reader) (Header, error) {
	var h Header
	for {
		line, err := readLine(br)
		if err != nil {
			return Header{}, err
		}
		if line == "" {
			return h, nil
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" {
			return Header{}, protocolErrorf("malformed header line %q", line)
		}
		h.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
}

// bodyFraming resolves how the body is delimited, in the priority
// order chunked, then Content-Length, then connection close.
func bodyFraming(method string, code int, h Header) (chunked bool, length int64, err error) {
	if method == "HEAD" || code == 204 || code == 304 || (code >= 100 && code < 200) {
		return false, 0, nil
	}
	for _, te := range h.Values("Transfer-Encoding") {
		for _, token := range strings.Split(te, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "chunked") {
				return true, -1, nil
			}
		}
	}
	if cl := h.Get("Content-Length"); cl != "" {
		n, convErr := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if convErr != nil || n < 0 {
			return false, 0, protocolErrorf("malformed Content-Length %q", cl)
		}
		return false, n, nil
	}
	return false, -1, nil
}
