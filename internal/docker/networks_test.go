package docker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keklick1337/GhostContainers/internal/docker"
)

func TestNetworks(t *testing.T) {
	t.Run("create returns the network ID", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/networks/create", func(w http.ResponseWriter, r *http.Request) {
			var opts docker.NetworkCreateOptions
			require.NoError(t, json.NewDecoder(r.Body).Decode(&opts))
			assert.Equal(t, "appnet", opts.Name)
			assert.Equal(t, "bridge", opts.Driver)
			respondJSON(w, 201, `{"Id":"net123","Warning":""}`)
		})

		client := daemon.client()
		defer client.Close()

		created, err := client.NetworkCreate(context.Background(), docker.NetworkCreateOptions{
			Name:   "appnet",
			Driver: "bridge",
		})
		require.NoError(t, err)
		assert.Equal(t, "net123", created.ID)
	})

	t.Run("list and remove", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/networks", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, 200, `[
				{"Id":"net1","Name":"bridge","Driver":"bridge","Scope":"local"},
				{"Id":"net2","Name":"appnet","Driver":"bridge","Scope":"local"}
			]`)
		})
		removed := false
		daemon.handle("/networks/net2", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "DELETE", r.Method)
			removed = true
			w.WriteHeader(204)
		})

		client := daemon.client()
		defer client.Close()

		networks, err := client.NetworkList(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, networks, 2)
		assert.Equal(t, "appnet", networks[1].Name)

		require.NoError(t, client.NetworkRemove(context.Background(), "net2"))
		assert.True(t, removed)
	})

	t.Run("removing a network with containers is a conflict", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/networks/busy", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, 409, `{"message":"network busy has active endpoints"}`)
		})

		client := daemon.client()
		defer client.Close()

		err := client.NetworkRemove(context.Background(), "busy")
		assert.True(t, docker.IsConflict(err))
	})

	t.Run("connect posts the container reference", func(t *testing.T) {
		daemon := newFakeDaemon(t)
		daemon.handle("/networks/net1/connect", func(w http.ResponseWriter, r *http.Request) {
			var payload struct {
				Container      string `json:"Container"`
				EndpointConfig *struct {
					Aliases []string `json:"Aliases"`
				} `json:"EndpointConfig"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "abc", payload.Container)
			require.NotNil(t, payload.EndpointConfig)
			assert.Equal(t, []string{"db"}, payload.EndpointConfig.Aliases)
			w.WriteHeader(200)
		})

		client := daemon.client()
		defer client.Close()

		require.NoError(t, client.NetworkConnect(context.Background(), "net1", "abc", []string{"db"}))
	})
}

func TestContainerStatsOnce(t *testing.T) {
	daemon := newFakeDaemon(t)
	daemon.handle("/containers/abc/stats", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("stream"))
		respondJSON(w, 200, `{
			"cpu_stats":{"cpu_usage":{"total_usage":400},"system_cpu_usage":10000,"online_cpus":2},
			"precpu_stats":{"cpu_usage":{"total_usage":200},"system_cpu_usage":9000},
			"memory_stats":{"usage":1048576,"limit":2097152}
		}`)
	})

	client := daemon.client()
	defer client.Close()

	snapshot, err := client.ContainerStatsOnce(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(1048576), snapshot.MemoryStats.Usage)
	// (400-200)/(10000-9000) * 2 cpus * 100
	assert.InDelta(t, 40.0, snapshot.CPUPercent(), 0.001)
}
