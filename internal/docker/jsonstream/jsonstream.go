// Package jsonstream encodes request payloads and decodes the
// daemon's JSON responses, including the newline-delimited object
// streams used by the events, stats, and pull/build progress
// endpoints.
package jsonstream

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/keklick1337/GhostContainers/internal/docker/transport"
)

// Encode serializes v to a UTF-8 JSON document.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeOne parses a single JSON document. Malformed input surfaces as
// a *transport.ProtocolError, since it means the daemon's response
// body did not hold what its endpoint promises.
func DecodeOne(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return &transport.ProtocolError{Reason: "malformed JSON: " + err.Error()}
	}
	return nil
}

// Decoder yields one value per complete JSON object from a body
// stream. Objects may be newline-delimited or simply concatenated;
// partial trailing bytes are held across reads until the object
// completes.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps a streaming response body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Decode reads the next object into v. It returns io.EOF at a clean
// end of stream, a *transport.ProtocolError when the bytes are not
// valid JSON, and the underlying read error otherwise.
func (d *Decoder) Decode(v any) error {
	err := d.dec.Decode(v)
	switch err.(type) {
	case nil:
		return nil
	case *json.SyntaxError, *json.UnmarshalTypeError:
		return &transport.ProtocolError{Reason: "malformed JSON stream: " + err.Error()}
	}
	if err == io.ErrUnexpectedEOF {
		return &transport.ProtocolError{Reason: "JSON stream truncated mid-object"}
	}
	return err
}

// More reports whether another object is already buffered or the
// stream has not ended.
func (d *Decoder) More() bool {
	return d.dec.More()
}
