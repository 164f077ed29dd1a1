package transport

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// chunkedReader decodes a Transfer-Encoding: chunked body. It is
// agnostic to how the underlying socket fragments its reads; chunk
// boundaries may fall anywhere inside a socket read and the decoded
// byte stream comes out identical.
type chunkedReader struct {
	br        *bufio.Reader
	remaining int64
	first     bool
	done      bool
	err       error
}

func newChunkedReader(br *bufio.Reader) *chunkedReader {
	return &chunkedReader{br: br, first: true}
}

func (cr *chunkedReader) Read(p []byte) (int, error) {
	if cr.err != nil {
		return 0, cr.err
	}
	if cr.done {
		return 0, io.EOF
	}
	if cr.remaining == 0 {
		if err := cr.beginChunk(); err != nil {
			cr.err = err
			return 0, err
		}
		if cr.done {
			return 0, io.EOF
		}
	}
	if int64(len(p)) > cr.remaining {
		p = p[:cr.remaining]
	}
	n, err := cr.br.Read(p)
	cr.remaining -= int64(n)
	if err != nil {
		if err == io.EOF {
			err = protocolErrorf("chunked body truncated with %d bytes outstanding", cr.remaining)
		}
		cr.err = err
		return n, err
	}
	return n, nil
}

// beginChunk consumes the CRLF closing the previous chunk, then the
// size line of the next one. A zero size ends the body after any
// trailer lines.
func (cr *chunkedReader) beginChunk() error {
	if !cr.first {
		if err := cr.expectCRLF(); err != nil {
			return err
		}
	}
	cr.first = false

	line, err := readLine(cr.br)
	if err != nil {
		return err
	}
	size, ok := parseChunkSize(line)
	if !ok {
		return protocolErrorf("malformed chunk size line %q", line)
	}
	if size == 0 {
		// Consume optional trailers up to the blank line.
		for {
			line, err := readLine(cr.br)
			if err != nil {
				return err
			}
			if line == "" {
				break
			}
		}
		cr.done = true
		return nil
	}
	cr.remaining = size
	return nil
}

func (cr *chunkedReader) expectCRLF() error {
	var crlf [2]byte
	if _, err := io.ReadFull(cr.br, crlf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return protocolErrorf("chunk terminator truncated")
		}
		return err
	}
	if crlf[0] != '\r' || crlf[1] != '\n' {
		return protocolErrorf("chunk not terminated by CRLF")
	}
	return nil
}

func parseChunkSize(line string) (int64, bool) {
	// Chunk extensions after ';' are permitted and ignored.
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, false
	}
	size, err := strconv.ParseInt(line, 16, 63)
	if err != nil || size < 0 {
		return 0, false
	}
	return size, true
}
