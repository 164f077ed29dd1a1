package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/keklick1337/GhostContainers/internal/docker"
)

func newNetworkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Manage networks",
	}
	cmd.AddCommand(
		newNetworkCreateCommand(),
		newNetworkLsCommand(),
		newNetworkInspectCommand(),
		newNetworkRmCommand(),
		newNetworkPruneCommand(),
		newNetworkConnectCommand(),
		newNetworkDisconnectCommand(),
	)
	return cmd
}

func newNetworkCreateCommand() *cobra.Command {
	var (
		driver     string
		internal   bool
		attachable bool
	)

	cmd := &cobra.Command{
		Use:   "create NETWORK",
		Short: "Create a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			created, err := client.NetworkCreate(cmd.Context(), docker.NetworkCreateOptions{
				Name:       args[0],
				Driver:     driver,
				Internal:   internal,
				Attachable: attachable,
			})
			if err != nil {
				return err
			}
			if created.Warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", created.Warning)
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&driver, "driver", "d", "bridge", "network driver")
	cmd.Flags().BoolVar(&internal, "internal", false, "restrict external access")
	cmd.Flags().BoolVar(&attachable, "attachable", false, "allow manual container attachment")
	return cmd
}

func newNetworkLsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			networks, err := client.NetworkList(cmd.Context(), nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NETWORK ID\tNAME\tDRIVER\tSCOPE")
			for _, n := range networks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", docker.ShortID(n.ID), n.Name, n.Driver, n.Scope)
			}
			return w.Flush()
		},
	}
}

func newNetworkInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect NETWORK",
		Short: "Show a network's configuration and attached containers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			detail, err := client.NetworkInspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:   %s\n", detail.Name)
			fmt.Fprintf(out, "ID:     %s\n", detail.ID)
			fmt.Fprintf(out, "Driver: %s\n", detail.Driver)
			fmt.Fprintf(out, "Scope:  %s\n", detail.Scope)
			if len(detail.Containers) > 0 {
				fmt.Fprintln(out, "Containers:")
				for id, c := range detail.Containers {
					fmt.Fprintf(out, "  %s  %s  %s\n", docker.ShortID(id), c.Name, c.IPv4Address)
				}
			}
			return nil
		},
	}
}

func newNetworkRmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm NETWORK [NETWORK...]",
		Short: "Remove one or more networks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			for _, id := range args {
				if err := client.NetworkRemove(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newNetworkPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove unused networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			deleted, err := client.NetworkPrune(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range deleted {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newNetworkConnectCommand() *cobra.Command {
	var aliases []string

	cmd := &cobra.Command{
		Use:   "connect NETWORK CONTAINER",
		Short: "Connect a container to a network",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.NetworkConnect(cmd.Context(), args[0], args[1], aliases)
		},
	}
	cmd.Flags().StringArrayVar(&aliases, "alias", nil, "network-scoped aliases for the container")
	return cmd
}

func newNetworkDisconnectCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "disconnect NETWORK CONTAINER",
		Short: "Disconnect a container from a network",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.NetworkDisconnect(cmd.Context(), args[0], args[1], force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force the disconnect")
	return cmd
}
