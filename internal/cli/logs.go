package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/keklick1337/GhostContainers/internal/docker"
	"github.com/keklick1337/GhostContainers/internal/docker/demux"
)

func newLogsCommand() *cobra.Command {
	var (
		follow     bool
		timestamps bool
		tail       string
		since      string
	)

	cmd := &cobra.Command{
		Use:   "logs CONTAINER",
		Short: "Fetch a container's logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			body, multiplexed, err := client.ContainerLogs(cmd.Context(), args[0], docker.LogsOptions{
				Follow:     follow,
				Timestamps: timestamps,
				Tail:       tail,
				Since:      since,
			})
			if err != nil {
				return err
			}
			defer body.Close()

			if multiplexed {
				_, err = demux.Copy(cmd.OutOrStdout(), cmd.ErrOrStderr(), body)
			} else {
				_, err = io.Copy(cmd.OutOrStdout(), body)
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow log output")
	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "prefix each line with its timestamp")
	cmd.Flags().StringVar(&tail, "tail", "", "number of lines from the end to show")
	cmd.Flags().StringVar(&since, "since", "", "show logs since a timestamp or duration (e.g. 10m)")
	return cmd
}
