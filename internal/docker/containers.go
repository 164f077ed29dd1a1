package docker

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
)

// ContainerList returns container summaries, optionally including
// stopped containers.
func (c *Client) ContainerList(ctx context.Context, opts ListOptions) ([]ContainerSummary, error) {
	query := url.Values{}
	if opts.All {
		query.Set("all", "true")
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if filters, err := encodeFilters(opts.Filters); err != nil {
		return nil, err
	} else if filters != "" {
		query.Set("filters", filters)
	}

	var containers []ContainerSummary
	if err := c.doJSON(ctx, "GET", "/containers/json", query, nil, &containers); err != nil {
		return nil, err
	}
	return containers, nil
}

// ContainerCreate creates a container and returns its ID along with
// any daemon warnings.
func (c *Client) ContainerCreate(ctx context.Context, opts CreateOptions) (CreateResponse, error) {
	query := url.Values{}
	if opts.Name != "" {
		query.Set("name", opts.Name)
	}
	if opts.Platform != "" {
		query.Set("platform", opts.Platform)
	}

	payload := struct {
		ContainerConfig
		HostConfig *HostConfig `json:"HostConfig,omitempty"`
	}{
		ContainerConfig: opts.Config,
		HostConfig:      opts.HostConfig,
	}

	var created CreateResponse
	if err := c.doJSON(ctx, "POST", "/containers/create", query, payload, &created); err != nil {
		return CreateResponse{}, err
	}
	return created, nil
}

// ContainerStart starts a created or stopped container.
func (c *Client) ContainerStart(ctx context.Context, id string) error {
	return c.doJSON(ctx, "POST", "/containers/"+id+"/start", nil, nil, nil)
}

// ContainerStop asks the container's main process to exit, killing it
// after timeout seconds. A nil timeout uses the daemon default.
func (c *Client) ContainerStop(ctx context.Context, id string, timeout *int) error {
	query := url.Values{}
	if timeout != nil {
		query.Set("t", strconv.Itoa(*timeout))
	}
	return c.doJSON(ctx, "POST", "/containers/"+id+"/stop", query, nil, nil)
}

// ContainerRestart stops then starts the container.
func (c *Client) ContainerRestart(ctx context.Context, id string, timeout *int) error {
	query := url.Values{}
	if timeout != nil {
		query.Set("t", strconv.Itoa(*timeout))
	}
	return c.doJSON(ctx, "POST", "/containers/"+id+"/restart", query, nil, nil)
}

// ContainerKill sends signal to the container's main process.
func (c *Client) ContainerKill(ctx context.Context, id, signal string) error {
	query := url.Values{}
	if signal != "" {
		query.Set("signal", signal)
	}
	return c.doJSON(ctx, "POST", "/containers/"+id+"/kill", query, nil, nil)
}

// ContainerRemove deletes a container. Removing a running container
// needs opts.Force.
func (c *Client) ContainerRemove(ctx context.Context, id string, opts RemoveOptions) error {
	query := url.Values{}
	if opts.Force {
		query.Set("force", "true")
	}
	if opts.RemoveVolumes {
		query.Set("v", "true")
	}
	return c.doJSON(ctx, "DELETE", "/containers/"+id, query, nil, nil)
}

// ContainerInspect returns the container's detailed state and config.
func (c *Client) ContainerInspect(ctx context.Context, id string) (ContainerDetail, error) {
	var detail ContainerDetail
	if err := c.doJSON(ctx, "GET", "/containers/"+id+"/json", nil, nil, &detail); err != nil {
		return ContainerDetail{}, err
	}
	return detail, nil
}

// ContainerRename gives the container a new name.
func (c *Client) ContainerRename(ctx context.Context, id, name string) error {
	query := url.Values{}
	query.Set("name", name)
	return c.doJSON(ctx, "POST", "/containers/"+id+"/rename", query, nil, nil)
}

// ContainerWait blocks until the container exits and returns its exit
// status. The wait holds its connection open for as long as the
// container runs.
func (c *Client) ContainerWait(ctx context.Context, id string) (WaitResponse, error) {
	body, err := c.stream(ctx, "POST", "/containers/"+id+"/wait", nil, nil)
	if err != nil {
		return WaitResponse{}, err
	}
	defer body.Close()

	var wait WaitResponse
	if err := decodeStreamOne(body, &wait); err != nil {
		return WaitResponse{}, fmt.Errorf("POST /containers/%s/wait: %w", id, err)
	}
	return wait, nil
}

// ContainerTop lists the processes running inside the container.
func (c *Client) ContainerTop(ctx context.Context, id, psArgs string) (TopResponse, error) {
	query := url.Values{}
	if psArgs != "" {
		query.Set("ps_args", psArgs)
	}
	var top TopResponse
	if err := c.doJSON(ctx, "GET", "/containers/"+id+"/top", query, nil, &top); err != nil {
		return TopResponse{}, err
	}
	return top, nil
}

// ContainerResize resizes the container's TTY.
func (c *Client) ContainerResize(ctx context.Context, id string, height, width uint) error {
	query := url.Values{}
	query.Set("h", strconv.FormatUint(uint64(height), 10))
	query.Set("w", strconv.FormatUint(uint64(width), 10))
	return c.doJSON(ctx, "POST", "/containers/"+id+"/resize", query, nil, nil)
}

// ContainerLogs opens the container's log stream. The second return
// value reports whether the stream uses the daemon's multiplexed
// framing, which is the case whenever the container runs without a
// TTY; callers feed such streams through the demux package.
func (c *Client) ContainerLogs(ctx context.Context, id string, opts LogsOptions) (io.ReadCloser, bool, error) {
	detail, err := c.ContainerInspect(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if !opts.Stdout && !opts.Stderr {
		opts.Stdout = true
		opts.Stderr = true
	}
	query := url.Values{}
	query.Set("stdout", boolValue(opts.Stdout))
	query.Set("stderr", boolValue(opts.Stderr))
	query.Set("follow", boolValue(opts.Follow))
	query.Set("timestamps", boolValue(opts.Timestamps))
	if opts.Tail != "" {
		query.Set("tail", opts.Tail)
	}
	if opts.Since != "" {
		query.Set("since", opts.Since)
	}

	body, err := c.stream(ctx, "GET", "/containers/"+id+"/logs", query, nil)
	if err != nil {
		return nil, false, err
	}
	return body, !detail.Config.Tty, nil
}

// ContainerStats opens the container's stats stream, one JSON sample
// roughly per second until closed.
func (c *Client) ContainerStats(ctx context.Context, id string) (*StatsStream, error) {
	query := url.Values{}
	query.Set("stream", "true")
	body, err := c.stream(ctx, "GET", "/containers/"+id+"/stats", query, nil)
	if err != nil {
		return nil, err
	}
	return newStatsStream(body), nil
}

// ContainerStatsOnce takes a single stats sample.
func (c *Client) ContainerStatsOnce(ctx context.Context, id string) (StatsSnapshot, error) {
	query := url.Values{}
	query.Set("stream", "false")

	var snapshot StatsSnapshot
	if err := c.doJSON(ctx, "GET", "/containers/"+id+"/stats", query, nil, &snapshot); err != nil {
		return StatsSnapshot{}, err
	}
	return snapshot, nil
}

func boolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
