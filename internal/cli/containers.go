package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/keklick1337/GhostContainers/internal/docker"
)

func newPsCommand() *cobra.Command {
	var all bool
	var limit int

	cmd := &cobra.Command{
		Use:   "ps",
		Short: "List containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			containers, err := client.ContainerList(cmd.Context(), docker.ListOptions{All: all, Limit: limit})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CONTAINER ID\tIMAGE\tCOMMAND\tCREATED\tSTATUS\tNAMES")
			for _, c := range containers {
				created := units.HumanDuration(time.Since(time.Unix(c.Created, 0))) + " ago"
				fmt.Fprintf(w, "%s\t%s\t%q\t%s\t%s\t%s\n",
					docker.ShortID(c.ID), c.Image, c.Command, created, c.Status, c.Name())
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include stopped containers")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "limit the number of results")
	return cmd
}

func newCreateCommand() *cobra.Command {
	var (
		name       string
		env        []string
		ports      []string
		volumes    []string
		workdir    string
		entrypoint string
		network    string
		tty        bool
		autoRemove bool
	)

	cmd := &cobra.Command{
		Use:   "create IMAGE [COMMAND] [ARG...]",
		Short: "Create a container",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			opts := docker.CreateOptions{
				Name: name,
				Config: docker.ContainerConfig{
					Image:      args[0],
					Cmd:        args[1:],
					Env:        env,
					WorkingDir: workdir,
					Tty:        tty,
				},
			}
			if entrypoint != "" {
				opts.Config.Entrypoint = []string{entrypoint}
			}

			host := docker.HostConfig{
				Binds:       volumes,
				NetworkMode: network,
				AutoRemove:  autoRemove,
			}
			if len(ports) > 0 {
				exposed, bindings, err := parsePortSpecs(ports)
				if err != nil {
					return err
				}
				opts.Config.ExposedPorts = exposed
				host.PortBindings = bindings
			}
			opts.HostConfig = &host

			created, err := client.ContainerCreate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, warning := range created.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", warning)
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "container name")
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil, "environment variables (KEY=value)")
	cmd.Flags().StringArrayVarP(&ports, "publish", "p", nil, "publish ports (host:container[/proto])")
	cmd.Flags().StringArrayVarP(&volumes, "volume", "v", nil, "bind mounts (host:container[:mode])")
	cmd.Flags().StringVarP(&workdir, "workdir", "w", "", "working directory inside the container")
	cmd.Flags().StringVar(&entrypoint, "entrypoint", "", "override the image entrypoint")
	cmd.Flags().StringVar(&network, "network", "", "connect the container to a network")
	cmd.Flags().BoolVarP(&tty, "tty", "t", false, "allocate a pseudo-TTY")
	cmd.Flags().BoolVar(&autoRemove, "rm", false, "remove the container when it exits")
	return cmd
}

// parsePortSpecs turns -p host:container[/proto] specs into the
// create payload's exposed-port set and binding map.
func parsePortSpecs(specs []string) (map[string]struct{}, map[string][]docker.PortBinding, error) {
	exposed := make(map[string]struct{})
	bindings := make(map[string][]docker.PortBinding)
	for _, spec := range specs {
		proto := "tcp"
		if rest, p, ok := strings.Cut(spec, "/"); ok {
			spec, proto = rest, p
		}
		host, container, ok := strings.Cut(spec, ":")
		if !ok {
			host, container = "", spec
		}
		key := container + "/" + proto
		exposed[key] = struct{}{}
		bindings[key] = append(bindings[key], docker.PortBinding{HostPort: host})
	}
	return exposed, bindings, nil
}

func newStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start CONTAINER [CONTAINER...]",
		Short: "Start one or more containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			for _, id := range args {
				if err := client.ContainerStart(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newStopCommand() *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:   "stop CONTAINER [CONTAINER...]",
		Short: "Stop one or more containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			var t *int
			if cmd.Flags().Changed("time") {
				t = &timeout
			}
			for _, id := range args {
				if err := client.ContainerStop(cmd.Context(), id, t); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&timeout, "time", "t", 10, "seconds to wait before killing the container")
	return cmd
}

func newRestartCommand() *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:   "restart CONTAINER [CONTAINER...]",
		Short: "Restart one or more containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			var t *int
			if cmd.Flags().Changed("time") {
				t = &timeout
			}
			for _, id := range args {
				if err := client.ContainerRestart(cmd.Context(), id, t); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&timeout, "time", "t", 10, "seconds to wait before killing the container")
	return cmd
}

func newKillCommand() *cobra.Command {
	var signal string

	cmd := &cobra.Command{
		Use:   "kill CONTAINER [CONTAINER...]",
		Short: "Kill one or more running containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			for _, id := range args {
				if err := client.ContainerKill(cmd.Context(), id, signal); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&signal, "signal", "s", "", "signal to send (default SIGKILL)")
	return cmd
}

func newRmCommand() *cobra.Command {
	var force, volumes bool

	cmd := &cobra.Command{
		Use:   "rm CONTAINER [CONTAINER...]",
		Short: "Remove one or more containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			for _, id := range args {
				err := client.ContainerRemove(cmd.Context(), id, docker.RemoveOptions{
					Force:         force,
					RemoveVolumes: volumes,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "remove even if running")
	cmd.Flags().BoolVarP(&volumes, "volumes", "v", false, "remove anonymous volumes")
	return cmd
}

func newRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename CONTAINER NEW_NAME",
		Short: "Rename a container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.ContainerRename(cmd.Context(), args[0], args[1])
		},
	}
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect CONTAINER",
		Short: "Show detailed container state as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			detail, err := client.ContainerInspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(detail)
		},
	}
}

func newWaitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wait CONTAINER",
		Short: "Block until a container exits, then print its exit code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			wait, err := client.ContainerWait(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), wait.StatusCode)
			return nil
		},
	}
}

func newTopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "top CONTAINER [ps ARGS]",
		Short: "List the processes running inside a container",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			top, err := client.ContainerTop(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join(top.Titles, "\t"))
			for _, proc := range top.Processes {
				fmt.Fprintln(w, strings.Join(proc, "\t"))
			}
			return w.Flush()
		},
	}
}
