package docker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keklick1337/GhostContainers/internal/docker"
	"github.com/keklick1337/GhostContainers/internal/docker/demux"
	"github.com/keklick1337/GhostContainers/internal/docker/transport"
)

func TestNew(t *testing.T) {
	t.Run("fails up front when the socket does not exist", func(t *testing.T) {
		_, err := docker.New(docker.Options{SocketPath: "/nonexistent/docker.sock"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "docker socket not found")
	})
}

func TestContainerList(t *testing.T) {
	daemon := newFakeDaemon(t)
	daemon.handle("/containers/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("all"))
		respondJSON(w, 200, `[
			{"Id":"aaaa1111","Names":["/web"],"Image":"nginx:latest","State":"running","Status":"Up 2 hours"},
			{"Id":"bbbb2222","Names":["/db"],"Image":"postgres:16","State":"exited","Status":"Exited (0) 1 hour ago"}
		]`)
	})

	client := daemon.client()
	defer client.Close()

	containers, err := client.ContainerList(context.Background(), docker.ListOptions{All: true})
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "web", containers[0].Name())
	assert.Equal(t, "nginx:latest", containers[0].Image)
	assert.Equal(t, "exited", containers[1].State)
}

func TestContainerCreate(t *testing.T) {
	t.Run("sends config and returns the new ID", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/containers/create", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "web", r.URL.Query().Get("name"))

			var payload struct {
				Image      string   `json:"Image"`
				Cmd        []string `json:"Cmd"`
				HostConfig *struct {
					Binds []string `json:"Binds"`
				} `json:"HostConfig"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "nginx:latest", payload.Image)
			assert.Equal(t, []string{"nginx", "-g", "daemon off;"}, payload.Cmd)
			require.NotNil(t, payload.HostConfig)
			assert.Equal(t, []string{"/data:/var/www"}, payload.HostConfig.Binds)

			respondJSON(w, 201, `{"Id":"abc123","Warnings":["a warning"]}`)
		})

		client := daemon.client()
		defer client.Close()

		created, err := client.ContainerCreate(context.Background(), docker.CreateOptions{
			Name: "web",
			Config: docker.ContainerConfig{
				Image: "nginx:latest",
				Cmd:   []string{"nginx", "-g", "daemon off;"},
			},
			HostConfig: &docker.HostConfig{Binds: []string{"/data:/var/www"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "abc123", created.ID)
		assert.Equal(t, []string{"a warning"}, created.Warnings)
	})
}

func TestAPIErrors(t *testing.T) {
	t.Run("404 maps to a not-found error with the daemon's message", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/containers/doesnotexist/start", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, 404, `{"message":"No such container: doesnotexist"}`)
		})

		client := daemon.client()
		defer client.Close()

		err := client.ContainerStart(context.Background(), "doesnotexist")
		require.Error(t, err)
		assert.True(t, docker.IsNotFound(err))

		var ae *docker.APIError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, 404, ae.StatusCode)
		assert.Equal(t, "No such container: doesnotexist", ae.Message)
	})

	t.Run("409 maps to a conflict error", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/containers/busy", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, 409, `{"message":"You cannot remove a running container"}`)
		})

		client := daemon.client()
		defer client.Close()

		err := client.ContainerRemove(context.Background(), "busy", docker.RemoveOptions{})
		assert.True(t, docker.IsConflict(err))
	})

	t.Run("5xx maps to a daemon fault", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/info", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, 500, `{"message":"layer store corrupted"}`)
		})

		client := daemon.client()
		defer client.Close()

		_, err := client.Info(context.Background())
		var ae *docker.APIError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, docker.DaemonFault, ae.Kind)
	})

	t.Run("non-JSON error body falls back to raw text", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/version", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(502)
			_, _ = w.Write([]byte("bad gateway"))
		})

		client := daemon.client()
		defer client.Close()

		_, err := client.Version(context.Background())
		var ae *docker.APIError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "bad gateway", ae.Message)
	})
}

func TestContainerWait(t *testing.T) {
	daemon := newFakeDaemon(t)
	daemon.handle("/containers/abc/wait", func(w http.ResponseWriter, r *http.Request) {
		// Simulate the container running for a moment before exit.
		time.Sleep(50 * time.Millisecond)
		respondJSON(w, 200, `{"StatusCode":137}`)
	})

	client := daemon.client()
	defer client.Close()

	wait, err := client.ContainerWait(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(137), wait.StatusCode)
}

func TestContainerLogs(t *testing.T) {
	t.Run("non-TTY logs are multiplexed and demux cleanly", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/containers/abc/json", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, 200, `{"Id":"abc","Config":{"Tty":false}}`)
		})
		daemon.handle("/containers/abc/logs", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("stdout"))
			var stream []byte
			stream = append(stream, muxFrame(1, "stdout line\n")...)
			stream = append(stream, muxFrame(2, "stderr line\n")...)
			w.WriteHeader(200)
			_, _ = w.Write(stream)
		})

		client := daemon.client()
		defer client.Close()

		body, multiplexed, err := client.ContainerLogs(context.Background(), "abc", docker.LogsOptions{})
		require.NoError(t, err)
		defer body.Close()
		require.True(t, multiplexed)

		var stdout, stderr bytes.Buffer
		_, err = demux.Copy(&stdout, &stderr, body)
		require.NoError(t, err)
		assert.Equal(t, "stdout line\n", stdout.String())
		assert.Equal(t, "stderr line\n", stderr.String())
	})

	t.Run("TTY logs come back as a raw stream", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/containers/tty/json", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, 200, `{"Id":"tty","Config":{"Tty":true}}`)
		})
		daemon.handle("/containers/tty/logs", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte("raw terminal output"))
		})

		client := daemon.client()
		defer client.Close()

		body, multiplexed, err := client.ContainerLogs(context.Background(), "tty", docker.LogsOptions{})
		require.NoError(t, err)
		defer body.Close()
		assert.False(t, multiplexed)

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "raw terminal output", string(data))
	})

	t.Run("canceling a log stream leaves the client usable", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/containers/abc/json", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, 200, `{"Id":"abc","Config":{"Tty":true}}`)
		})
		daemon.handle("/containers/abc/logs", func(w http.ResponseWriter, r *http.Request) {
			flusher := w.(http.Flusher)
			w.WriteHeader(200)
			_, _ = w.Write([]byte("partial"))
			flusher.Flush()
			<-r.Context().Done()
		})
		daemon.handle("/_ping", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte("OK"))
		})

		client := daemon.client()
		defer client.Close()

		ctx, cancel := context.WithCancel(context.Background())
		body, _, err := client.ContainerLogs(ctx, "abc", docker.LogsOptions{Follow: true})
		require.NoError(t, err)
		defer body.Close()

		buf := make([]byte, 16)
		n, err := body.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "partial", string(buf[:n]))

		cancel()
		_, err = body.Read(buf)
		require.Error(t, err)
		var te *transport.Error
		require.ErrorAs(t, err, &te)
		assert.Equal(t, transport.KindCanceled, te.Kind)

		// A fresh operation dials its own connection and succeeds.
		require.NoError(t, client.Ping(context.Background()))
	})
}

func TestEvents(t *testing.T) {
	daemon := newFakeDaemon(t)
	daemon.handle("/events", func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"Type":"container","Action":"start","Actor":{"ID":"aaaa1111"}}` + "\n"))
		flusher.Flush()
		_, _ = w.Write([]byte(`{"Type":"container","Action":"die","Actor":{"ID":"aaaa1111"}}` + "\n"))
		flusher.Flush()
	})

	client := daemon.client()
	defer client.Close()

	events, err := client.Events(context.Background(), docker.EventsOptions{})
	require.NoError(t, err)
	defer events.Close()

	first, err := events.Next()
	require.NoError(t, err)
	assert.Equal(t, "start", first.Action)

	second, err := events.Next()
	require.NoError(t, err)
	assert.Equal(t, "die", second.Action)

	_, err = events.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestPing(t *testing.T) {
	daemon := newFakeDaemon(t)
	daemon.handle("/_ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("OK"))
	})

	client := daemon.client()
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()))
}

func TestVersion(t *testing.T) {
	daemon := newFakeDaemon(t)
	daemon.handle("/version", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, 200, `{"Version":"26.0.0","ApiVersion":"1.45","Os":"linux","Arch":"amd64"}`)
	})

	client := daemon.client()
	defer client.Close()

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "26.0.0", version.Version)
	assert.Equal(t, "1.45", version.APIVersion)
}

func TestImagePull(t *testing.T) {
	t.Run("streams progress lines to the callback", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/images/create", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "alpine", r.URL.Query().Get("fromImage"))
			assert.Equal(t, "3.19", r.URL.Query().Get("tag"))
			w.WriteHeader(200)
			_, _ = w.Write([]byte(`{"status":"Pulling from library/alpine","id":"3.19"}` + "\n"))
			_, _ = w.Write([]byte(`{"status":"Download complete","id":"layer1"}` + "\n"))
			_, _ = w.Write([]byte(`{"status":"Status: Downloaded newer image for alpine:3.19"}` + "\n"))
		})

		client := daemon.client()
		defer client.Close()

		var statuses []string
		err := client.ImagePull(context.Background(), "alpine:3.19", func(p docker.PullProgress) {
			statuses = append(statuses, p.Status)
		})
		require.NoError(t, err)
		require.Len(t, statuses, 3)
		assert.Equal(t, "Download complete", statuses[1])
	})

	t.Run("an error line in the stream fails the pull", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/images/create", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte(`{"status":"Pulling"}` + "\n"))
			_, _ = w.Write([]byte(`{"error":"manifest unknown"}` + "\n"))
		})

		client := daemon.client()
		defer client.Close()

		err := client.ImagePull(context.Background(), "ghost/none", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "manifest unknown")
	})
}

func TestExecRun(t *testing.T) {
	daemon := newFakeDaemon(t)
	daemon.handle("/containers/abc/exec", func(w http.ResponseWriter, r *http.Request) {
		var opts docker.ExecOptions
		require.NoError(t, json.NewDecoder(r.Body).Decode(&opts))
		assert.Equal(t, []string{"cat", "/etc/hostname"}, opts.Cmd)
		respondJSON(w, 201, `{"Id":"exec42"}`)
	})
	daemon.handle("/exec/exec42/start", func(w http.ResponseWriter, r *http.Request) {
		hijacker, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hijacker.Hijack()
		require.NoError(t, err)
		defer conn.Close()

		_, _ = conn.Write([]byte("HTTP/1.1 101 UPGRADED\r\nConnection: Upgrade\r\nUpgrade: tcp\r\n\r\n"))
		_, _ = conn.Write(muxFrame(1, "the-hostname\n"))
		_, _ = conn.Write(muxFrame(2, "a diagnostic\n"))
	})
	daemon.handle("/exec/exec42/json", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, 200, `{"ID":"exec42","Running":false,"ExitCode":0}`)
	})

	client := daemon.client()
	defer client.Close()

	stdout, stderr, exitCode, err := client.ExecRun(context.Background(), "abc", []string{"cat", "/etc/hostname"})
	require.NoError(t, err)
	assert.Equal(t, "the-hostname\n", stdout)
	assert.Equal(t, "a diagnostic\n", stderr)
	assert.Equal(t, 0, exitCode)
}
