// Package demux decodes Docker's multiplexed stdout/stderr framing
// used by the logs, attach, and exec endpoints when no TTY is
// allocated.
//
// Each frame is an 8-byte header followed by its payload:
//
//	[8]byte{STREAM_TYPE, 0, 0, 0, SIZE1, SIZE2, SIZE3, SIZE4}[]byte{OUTPUT}
//
// STREAM_TYPE is 0 for stdin, 1 for stdout, 2 for stderr; the size is
// a big-endian uint32 covering only the payload.
package demux

import (
	"encoding/binary"
	"fmt"
	"io"
)

// StreamKind tags which standard stream a frame belongs to.
type StreamKind byte

const (
	Stdin  StreamKind = 0
	Stdout StreamKind = 1
	Stderr StreamKind = 2
)

func (k StreamKind) String() string {
	switch k {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	}
	return fmt.Sprintf("stream(%d)", byte(k))
}

// Frame is one decoded unit of the multiplexed stream.
type Frame struct {
	Kind    StreamKind
	Payload []byte
}

// StreamError is a truncated frame or an unrecognized stream tag.
type StreamError struct {
	Reason string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Reason
}

// Decoder is a state machine over the raw byte stream: it alternates
// between expecting an 8-byte header and expecting exactly the
// declared number of payload bytes, regardless of how the underlying
// reads are fragmented.
type Decoder struct {
	r      io.Reader
	header [8]byte
}

// NewDecoder wraps the raw multiplexed body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Next returns the next frame. It returns io.EOF when the stream ends
// cleanly at a frame boundary and a *StreamError when it ends inside a
// header or payload, or when the tag byte is outside the known set.
func (d *Decoder) Next() (Frame, error) {
	n, err := io.ReadFull(d.r, d.header[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return Frame{}, io.EOF
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Frame{}, &StreamError{Reason: fmt.Sprintf("stream ended inside frame header (%d of 8 bytes)", n)}
		}
		return Frame{}, err
	}

	kind := StreamKind(d.header[0])
	if kind > Stderr {
		return Frame{}, &StreamError{Reason: fmt.Sprintf("unrecognized stream tag %d", d.header[0])}
	}

	size := binary.BigEndian.Uint32(d.header[4:8])
	payload := make([]byte, size)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Frame{}, &StreamError{Reason: fmt.Sprintf("stream ended with %s frame truncated", kind)}
		}
		return Frame{}, err
	}

	return Frame{Kind: kind, Payload: payload}, nil
}

// Copy demultiplexes src onto separate stdout and stderr writers until
// the stream ends. Stdin-tagged frames are discarded; the daemon does
// not echo stdin on output streams.
func Copy(stdout, stderr io.Writer, src io.Reader) (written int64, err error) {
	dec := NewDecoder(src)
	for {
		frame, err := dec.Next()
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}

		var dst io.Writer
		switch frame.Kind {
		case Stdout:
			dst = stdout
		case Stderr:
			dst = stderr
		default:
			continue
		}
		n, err := dst.Write(frame.Payload)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
}
