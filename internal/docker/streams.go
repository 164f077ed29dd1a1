package docker

import (
	"errors"
	"io"

	"github.com/keklick1337/GhostContainers/internal/docker/jsonstream"
	"github.com/keklick1337/GhostContainers/internal/docker/transport"
)

// decodeStreamOne reads exactly one JSON value from a streaming body.
func decodeStreamOne(r io.Reader, v any) error {
	return jsonstream.NewDecoder(r).Decode(v)
}

// isCleanEnd reports whether a streaming decode stopped because the
// daemon closed the stream at a value boundary.
func isCleanEnd(err error) bool {
	return errors.Is(err, io.EOF)
}

// StatsStream yields one StatsSnapshot per daemon sample. The consumer
// controls pacing; closing the stream discards its connection.
type StatsStream struct {
	body io.ReadCloser
	dec  *jsonstream.Decoder
}

func newStatsStream(body io.ReadCloser) *StatsStream {
	return &StatsStream{body: body, dec: jsonstream.NewDecoder(body)}
}

// Next blocks for the next sample. It returns io.EOF when the daemon
// ends the stream cleanly; a connection failure mid-stream surfaces as
// the terminal error, never a silent stop.
func (s *StatsStream) Next() (StatsSnapshot, error) {
	var snapshot StatsSnapshot
	if err := s.dec.Decode(&snapshot); err != nil {
		return StatsSnapshot{}, err
	}
	return snapshot, nil
}

func (s *StatsStream) Close() error { return s.body.Close() }

// EventStream yields daemon events as they happen.
type EventStream struct {
	body io.ReadCloser
	dec  *jsonstream.Decoder
}

func newEventStream(body io.ReadCloser) *EventStream {
	return &EventStream{body: body, dec: jsonstream.NewDecoder(body)}
}

// Next blocks for the next event; semantics match StatsStream.Next.
func (s *EventStream) Next() (EventMessage, error) {
	var event EventMessage
	if err := s.dec.Decode(&event); err != nil {
		return EventMessage{}, err
	}
	return event, nil
}

func (s *EventStream) Close() error { return s.body.Close() }

// HijackedStream is a duplex attach or exec session. Writes go to the
// process's stdin; reads carry its output, multiplexed unless the
// session has a TTY.
type HijackedStream struct {
	conn *transport.HijackedConn

	// Tty reports whether output is a single raw stream rather than
	// multiplexed frames.
	Tty bool
}

func (h *HijackedStream) Read(p []byte) (int, error)  { return h.conn.Read(p) }
func (h *HijackedStream) Write(p []byte) (int, error) { return h.conn.Write(p) }

// CloseWrite signals EOF on the process's stdin while keeping output
// flowing.
func (h *HijackedStream) CloseWrite() error { return h.conn.CloseWrite() }

// Close tears the session's connection down.
func (h *HijackedStream) Close() error { return h.conn.Close() }
