// Package config resolves client settings from flags, environment,
// and an optional config file, in that priority order.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/keklick1337/GhostContainers/internal/docker/transport"
)

// Settings holds everything the client needs to reach the daemon.
type Settings struct {
	// SocketPath is the daemon's Unix socket path.
	SocketPath string

	// ConnectTimeout bounds each socket dial.
	ConnectTimeout time.Duration

	// RequestTimeout bounds finite request/response exchanges.
	RequestTimeout time.Duration

	// LogLevel is the zerolog level name: debug, info, warn, error.
	LogLevel string
}

// Load resolves settings from the given viper instance, which the CLI
// has already bound to its flags and to a config file if one exists.
// DOCKER_HOST is honored the way the docker CLI honors it, but only
// for unix sockets.
func Load(v *viper.Viper) (Settings, error) {
	v.SetDefault("socket", defaultSocketPath())
	v.SetDefault("connect_timeout", 5*time.Second)
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix("ghost")
	v.AutomaticEnv()

	// Fields are read individually rather than via Unmarshal so values
	// that exist only as environment variables are picked up.
	settings := Settings{
		SocketPath:     v.GetString("socket"),
		ConnectTimeout: v.GetDuration("connect_timeout"),
		RequestTimeout: v.GetDuration("request_timeout"),
		LogLevel:       v.GetString("log_level"),
	}

	if !v.IsSet("socket") || v.GetString("socket") == defaultSocketPath() {
		if host := socketFromDockerHost(); host != "" {
			settings.SocketPath = host
		}
	}
	return settings, nil
}

// socketFromDockerHost extracts a socket path from DOCKER_HOST.
// TCP daemons are out of scope, so anything but unix:// is ignored.
func socketFromDockerHost() string {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		return ""
	}
	if path, ok := strings.CutPrefix(host, "unix://"); ok {
		return path
	}
	return ""
}

// defaultSocketPath prefers the Docker Desktop user socket on macOS
// when it exists, since the system path is often absent there.
func defaultSocketPath() string {
	if runtime.GOOS == "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			desktop := filepath.Join(home, ".docker", "run", "docker.sock")
			if _, err := os.Stat(desktop); err == nil {
				return desktop
			}
		}
	}
	return transport.DefaultSocketPath
}
