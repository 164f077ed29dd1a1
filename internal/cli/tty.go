package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/cli/cli/streams"
	"github.com/rs/zerolog/log"
)

// resizeFunc pushes new terminal dimensions to the daemon, for either
// a container TTY or an exec TTY.
type resizeFunc func(ctx context.Context, height, width uint) error

// ttyMonitor keeps a remote TTY sized to the local terminal.
type ttyMonitor struct {
	out        *streams.Out
	resize     resizeFunc
	maxRetries int
	retryDelay time.Duration
}

func newTTYMonitor(out *streams.Out, resize resizeFunc) ttyMonitor {
	return ttyMonitor{
		out:        out,
		resize:     resize,
		maxRetries: 5,
		retryDelay: 10 * time.Millisecond,
	}
}

// monitor performs an initial resize, retrying with backoff if the
// remote side is not ready yet, then follows SIGWINCH until the
// context ends.
func (t ttyMonitor) monitor(ctx context.Context) {
	if err := t.resizeNow(ctx); err != nil {
		go func() {
			var err error
			for retry := 0; retry < t.maxRetries; retry++ {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(retry+1) * t.retryDelay):
					if err = t.resizeNow(ctx); err == nil {
						return
					}
				}
			}
			if err != nil {
				log.Warn().Err(err).Msg("failed to resize tty")
			}
		}()
	}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGWINCH)
	go func() {
		defer signal.Stop(sigchan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigchan:
				_ = t.resizeNow(ctx)
			}
		}
	}()
}

func (t ttyMonitor) resizeNow(ctx context.Context) error {
	height, width := t.out.GetTtySize()
	if height == 0 && width == 0 {
		return nil
	}
	return t.resize(ctx, height, width)
}
