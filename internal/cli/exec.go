package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/cli/cli/streams"
	"github.com/moby/term"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/keklick1337/GhostContainers/internal/docker"
	"github.com/keklick1337/GhostContainers/internal/docker/demux"
)

func newExecCommand() *cobra.Command {
	var (
		interactive bool
		tty         bool
		user        string
		workdir     string
		env         []string
	)

	cmd := &cobra.Command{
		Use:   "exec CONTAINER COMMAND [ARG...]",
		Short: "Run a command inside a running container",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			execID, err := client.ExecCreate(cmd.Context(), args[0], docker.ExecOptions{
				Cmd:          args[1:],
				AttachStdin:  interactive,
				AttachStdout: true,
				AttachStderr: true,
				Tty:          tty,
				User:         user,
				WorkingDir:   workdir,
				Env:          env,
			})
			if err != nil {
				return err
			}

			session, err := client.ExecAttach(cmd.Context(), execID, tty)
			if err != nil {
				return err
			}
			defer session.Close()

			resize := func(ctx context.Context, h, w uint) error {
				return client.ExecResize(ctx, execID, h, w)
			}
			if err := pumpSession(cmd.Context(), session, interactive, tty, resize); err != nil {
				return err
			}

			detail, err := client.ExecInspect(cmd.Context(), execID)
			if err != nil {
				return err
			}
			if detail.ExitCode != 0 {
				return fmt.Errorf("command exited with status %d", detail.ExitCode)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "keep stdin open")
	cmd.Flags().BoolVarP(&tty, "tty", "t", false, "allocate a pseudo-TTY")
	cmd.Flags().StringVarP(&user, "user", "u", "", "username or UID")
	cmd.Flags().StringVarP(&workdir, "workdir", "w", "", "working directory inside the container")
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil, "environment variables (KEY=value)")
	return cmd
}

func newAttachCommand() *cobra.Command {
	var noStdin bool

	cmd := &cobra.Command{
		Use:   "attach CONTAINER",
		Short: "Attach local streams to a running container",
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
			tty := detail.Config.Tty

			session, err := client.ContainerAttach(cmd.Context(), args[0], docker.AttachOptions{
				Stream: true,
				Stdin:  !noStdin,
				Stdout: true,
				Stderr: true,
				Tty:    tty,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			resize := func(ctx context.Context, h, w uint) error {
				return client.ContainerResize(ctx, args[0], h, w)
			}
			return pumpSession(cmd.Context(), session, !noStdin, tty, resize)
		},
	}
	cmd.Flags().BoolVar(&noStdin, "no-stdin", false, "do not attach stdin")
	return cmd
}

// pumpSession forwards local streams through a hijacked attach or exec
// session until the remote side closes. With a TTY it puts the local
// terminal in raw mode and keeps the remote TTY sized to it; without
// one it demultiplexes the framed output onto stdout and stderr.
func pumpSession(ctx context.Context, session *docker.HijackedStream, stdin, tty bool, resize resizeFunc) error {
	stdIn, stdOut, stdErr := term.StdStreams()
	in := streams.NewIn(stdIn)
	out := streams.NewOut(stdOut)

	restore := func() {}
	if tty {
		newTTYMonitor(out, resize).monitor(ctx)

		restore = sync.OnceFunc(func() {
			in.RestoreTerminal()
			out.RestoreTerminal()
		})
		defer restore()

		if err := in.SetRawTerminal(); err != nil {
			return fmt.Errorf("failed to set stdin to raw terminal mode: %w\nYour terminal may not support TTY operations", err)
		}
		if err := out.SetRawTerminal(); err != nil {
			return fmt.Errorf("failed to set stdout to raw terminal mode: %w\nYour terminal may not support TTY operations", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if stdin {
		// Not part of the group: a read from the local terminal can
		// outlive the session, and the command must not hang on it.
		go func() {
			defer session.CloseWrite()

			_, err := io.Copy(session, in)
			if gctx.Err() == nil && err != nil && err != io.EOF {
				log.Debug().Err(err).Msg("stdin forwarding stopped")
			}
		}()
	}

	g.Go(func() error {
		defer restore()

		var err error
		if tty {
			_, err = io.Copy(out, session)
		} else {
			_, err = demux.Copy(stdOut, stdErr, session)
		}
		if gctx.Err() != nil || err == io.EOF {
			return nil
		}
		return err
	})

	return g.Wait()
}
