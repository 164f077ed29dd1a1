// Package cli assembles the command tree. Commands stay thin: parse
// flags, call one typed client operation, print.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keklick1337/GhostContainers/internal/config"
	"github.com/keklick1337/GhostContainers/internal/docker"
)

// Execute runs the root command and returns its exit code. SIGINT and
// SIGTERM cancel the command context, which closes any in-flight
// daemon connection.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "ghostcontainers",
		Short:         "Manage containers over the Docker daemon socket",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Root().PersistentFlags()
			for key, flag := range map[string]string{
				"socket":          "socket",
				"connect_timeout": "connect-timeout",
				"request_timeout": "request-timeout",
				"log_level":       "log-level",
			} {
				if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
					return err
				}
			}
			settings, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			initLogger(settings.LogLevel)
			cmd.SetContext(withSettings(cmd.Context(), settings))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("socket", "", "path to the Docker daemon socket")
	flags.Duration("connect-timeout", 5*time.Second, "daemon connect timeout")
	flags.Duration("request-timeout", 60*time.Second, "timeout for non-streaming requests")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newPsCommand(),
		newCreateCommand(),
		newStartCommand(),
		newStopCommand(),
		newRestartCommand(),
		newKillCommand(),
		newRmCommand(),
		newRenameCommand(),
		newInspectCommand(),
		newWaitCommand(),
		newTopCommand(),
		newLogsCommand(),
		newExecCommand(),
		newAttachCommand(),
		newCpCommand(),
		newImagesCommand(),
		newPullCommand(),
		newRmiCommand(),
		newBuildCommand(),
		newTagCommand(),
		newNetworkCommand(),
		newEventsCommand(),
		newStatsCommand(),
		newVersionCommand(),
		newInfoCommand(),
		newPingCommand(),
	)
	return root
}

func initLogger(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.WarnLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(parsed).
		With().Timestamp().Logger()
}

// newClient builds the API client from the settings the root command
// resolved.
func newClient(cmd *cobra.Command) (*docker.Client, error) {
	settings := settingsFrom(cmd.Context())
	client, err := docker.New(docker.Options{
		SocketPath:     settings.SocketPath,
		ConnectTimeout: settings.ConnectTimeout,
		RequestTimeout: settings.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w\nMake sure the Docker daemon is running (try 'docker ps')", err)
	}
	return client, nil
}
