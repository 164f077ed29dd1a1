package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/keklick1337/GhostContainers/internal/docker"
)

func newImagesCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			images, err := client.ImageList(cmd.Context(), all)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REPOSITORY\tTAG\tIMAGE ID\tCREATED\tSIZE")
			for _, img := range images {
				created := units.HumanDuration(time.Since(time.Unix(img.Created, 0))) + " ago"
				size := units.HumanSizeWithPrecision(float64(img.Size), 3)
				id := docker.ShortID(strings.TrimPrefix(img.ID, "sha256:"))
				if len(img.RepoTags) == 0 {
					fmt.Fprintf(w, "<none>\t<none>\t%s\t%s\t%s\n", id, created, size)
					continue
				}
				for _, tag := range img.RepoTags {
					repo, version, _ := strings.Cut(tag, ":")
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", repo, version, id, created, size)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include intermediate images")
	return cmd
}

func newPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull IMAGE[:TAG]",
		Short: "Pull an image from a registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			return client.ImagePull(cmd.Context(), args[0], func(p docker.PullProgress) {
				if p.ID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", p.ID, p.Status, p.Progress)
				} else if p.Status != "" {
					fmt.Fprintln(cmd.OutOrStdout(), p.Status)
				}
			})
		},
	}
}

func newRmiCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rmi IMAGE [IMAGE...]",
		Short: "Remove one or more images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			for _, ref := range args {
				if err := client.ImageRemove(cmd.Context(), ref, force); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ref)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "force removal")
	return cmd
}

func newBuildCommand() *cobra.Command {
	var (
		tags       []string
		dockerfile string
		buildArgs  []string
		noCache    bool
		platform   string
	)

	cmd := &cobra.Command{
		Use:   "build CONTEXT_DIR",
		Short: "Build an image from a context directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			opts := docker.BuildOptions{
				Tags:       tags,
				Dockerfile: dockerfile,
				Remove:     true,
				NoCache:    noCache,
				Platform:   platform,
			}
			if len(buildArgs) > 0 {
				opts.BuildArgs = make(map[string]string, len(buildArgs))
				for _, arg := range buildArgs {
					key, value, ok := strings.Cut(arg, "=")
					if !ok {
						return fmt.Errorf("invalid build arg %q, expected KEY=value", arg)
					}
					opts.BuildArgs[key] = value
				}
			}

			return client.ImageBuild(cmd.Context(), args[0], opts, func(line string) {
				fmt.Fprint(cmd.OutOrStdout(), line)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "name the image (repo:tag)")
	cmd.Flags().StringVarP(&dockerfile, "file", "f", "", "path of the Dockerfile within the context")
	cmd.Flags().StringArrayVar(&buildArgs, "build-arg", nil, "build-time variables (KEY=value)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the build cache")
	cmd.Flags().StringVar(&platform, "platform", "", "target platform (e.g. linux/amd64)")
	return cmd
}

func newTagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tag SOURCE_IMAGE TARGET_IMAGE[:TAG]",
		Short: "Apply a name to an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			repo, tag, _ := strings.Cut(args[1], ":")
			return client.ImageTag(cmd.Context(), args[0], repo, tag)
		},
	}
}
