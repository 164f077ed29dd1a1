package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/keklick1337/GhostContainers/internal/docker"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the daemon's version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			version, err := client.Version(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version:      %s\n", version.Version)
			fmt.Fprintf(out, "API version:  %s\n", version.APIVersion)
			fmt.Fprintf(out, "Go version:   %s\n", version.GoVersion)
			fmt.Fprintf(out, "Git commit:   %s\n", version.GitCommit)
			fmt.Fprintf(out, "OS/Arch:      %s/%s\n", version.Os, version.Arch)
			fmt.Fprintf(out, "Kernel:       %s\n", version.KernelVersion)
			return nil
		},
	}
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show system-wide daemon information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.Info(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:            %s\n", info.Name)
			fmt.Fprintf(out, "Server version:  %s\n", info.ServerVersion)
			fmt.Fprintf(out, "Storage driver:  %s\n", info.Driver)
			fmt.Fprintf(out, "OS:              %s (%s)\n", info.OperatingSystem, info.Architecture)
			fmt.Fprintf(out, "CPUs:            %d\n", info.NCPU)
			fmt.Fprintf(out, "Memory:          %s\n", units.BytesSize(float64(info.MemTotal)))
			fmt.Fprintf(out, "Containers:      %d (%d running, %d paused, %d stopped)\n",
				info.Containers, info.ContainersRunning, info.ContainersPaused, info.ContainersStopped)
			fmt.Fprintf(out, "Images:          %d\n", info.Images)
			return nil
		},
	}
}

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check daemon reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

func newEventsCommand() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream daemon events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			events, err := client.Events(cmd.Context(), docker.EventsOptions{Since: since})
			if err != nil {
				return err
			}
			defer events.Close()

			for {
				event, err := events.Next()
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				ts := time.Unix(event.Time, 0).Format(time.RFC3339)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
					ts, event.Type, event.Action, docker.ShortID(event.Actor.ID))
			}
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "include events since a timestamp or duration")
	return cmd
}

func newStatsCommand() *cobra.Command {
	var noStream bool

	cmd := &cobra.Command{
		Use:   "stats CONTAINER",
		Short: "Show a container's resource usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if noStream {
				snapshot, err := client.ContainerStatsOnce(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printStats(cmd, args[0], snapshot)
				return nil
			}

			stats, err := client.ContainerStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer stats.Close()

			for {
				snapshot, err := stats.Next()
				if err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				printStats(cmd, args[0], snapshot)
			}
		},
	}
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "take a single sample and exit")
	return cmd
}

func printStats(cmd *cobra.Command, id string, s docker.StatsSnapshot) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s  cpu %.2f%%  mem %s / %s\n",
		docker.ShortID(id),
		s.CPUPercent(),
		units.BytesSize(float64(s.MemoryStats.Usage)),
		units.BytesSize(float64(s.MemoryStats.Limit)))
}
