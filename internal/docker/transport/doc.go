// Package transport dials the Docker daemon's Unix socket and speaks
// HTTP/1.1 over it directly.
//
// The daemon's streaming endpoints (logs, events, attach) need exact
// control over body framing and connection lifetime, so the wire format
// is implemented here on top of net and bufio instead of net/http.
// Every request gets a fresh connection; connections are never pooled
// or reused.
package transport
