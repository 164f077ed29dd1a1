package docker_test

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keklick1337/GhostContainers/internal/docker"
)

// fakeDaemon serves scripted Engine API handlers on a Unix socket in a
// temp dir, standing in for dockerd.
type fakeDaemon struct {
	t      *testing.T
	mux    *http.ServeMux
	socket string
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "docker.sock")
	listener, err := net.Listen("unix", socket)
	require.NoError(t, err)

	mux := http.NewServeMux()
	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	return &fakeDaemon{t: t, mux: mux, socket: socket}
}

func (d *fakeDaemon) handle(pattern string, handler http.HandlerFunc) {
	d.mux.HandleFunc(pattern, handler)
}

func (d *fakeDaemon) client() *docker.Client {
	d.t.Helper()
	client, err := docker.New(docker.Options{
		SocketPath:     d.socket,
		ConnectTimeout: time.Second,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(d.t, err)
	return client
}

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// muxFrame builds one multiplexed stream frame for logs and exec
// fixtures.
func muxFrame(tag byte, payload string) []byte {
	header := []byte{tag, 0, 0, 0, 0, 0, 0, 0}
	header[4] = byte(len(payload) >> 24)
	header[5] = byte(len(payload) >> 16)
	header[6] = byte(len(payload) >> 8)
	header[7] = byte(len(payload))
	return append(header, payload...)
}
