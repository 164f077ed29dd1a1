package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rs/zerolog/log"
)

func newCpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cp SRC DEST",
		Short: "Copy files between a container and the local filesystem",
		Long: `Copy files between a container and the local filesystem.

One side names a container path as CONTAINER:PATH, the other a local
path. Copying into a container ships the source as a tar archive;
copying out extracts the daemon's archive under the destination
directory.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcContainer, srcPath, srcRemote := splitContainerPath(args[0])
			destContainer, destPath, destRemote := splitContainerPath(args[1])

			if srcRemote == destRemote {
				return fmt.Errorf("exactly one of SRC and DEST must be a container path (CONTAINER:PATH)")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if destRemote {
				return client.UploadPath(cmd.Context(), destContainer, args[0], destPath)
			}

			entries, err := client.DownloadPath(cmd.Context(), srcContainer, srcPath, args[1])
			if err != nil {
				return err
			}
			log.Debug().Int("entries", len(entries)).Msg("archive extracted")
			return nil
		},
	}
}

// splitContainerPath parses CONTAINER:PATH. A single-character prefix
// before the colon is treated as a Windows-style drive and left alone,
// matching the docker CLI's rule.
func splitContainerPath(arg string) (container, path string, remote bool) {
	container, path, ok := strings.Cut(arg, ":")
	if !ok || len(container) == 1 {
		return "", arg, false
	}
	return container, path, true
}
