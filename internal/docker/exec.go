package docker

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/keklick1337/GhostContainers/internal/docker/demux"
)

// ExecCreate registers a command to run inside a running container and
// returns the exec instance ID.
func (c *Client) ExecCreate(ctx context.Context, containerID string, opts ExecOptions) (string, error) {
	var created struct {
		ID string `json:"Id"`
	}
	if err := c.doJSON(ctx, "POST", "/containers/"+containerID+"/exec", nil, opts, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// ExecStartDetached starts an exec instance without attaching to it.
func (c *Client) ExecStartDetached(ctx context.Context, execID string, tty bool) error {
	payload := struct {
		Detach bool `json:"Detach"`
		Tty    bool `json:"Tty"`
	}{Detach: true, Tty: tty}
	return c.doJSON(ctx, "POST", "/exec/"+execID+"/start", nil, payload, nil)
}

// ExecAttach starts an exec instance and upgrades the exchange to a
// duplex session carrying its stdin and output.
func (c *Client) ExecAttach(ctx context.Context, execID string, tty bool) (*HijackedStream, error) {
	payload := struct {
		Detach bool `json:"Detach"`
		Tty    bool `json:"Tty"`
	}{Detach: false, Tty: tty}

	conn, err := c.hijack(ctx, "/exec/"+execID+"/start", nil, payload)
	if err != nil {
		return nil, err
	}
	return &HijackedStream{conn: conn, Tty: tty}, nil
}

// ExecInspect reports an exec instance's state, including its exit
// code once finished.
func (c *Client) ExecInspect(ctx context.Context, execID string) (ExecDetail, error) {
	var detail ExecDetail
	if err := c.doJSON(ctx, "GET", "/exec/"+execID+"/json", nil, nil, &detail); err != nil {
		return ExecDetail{}, err
	}
	return detail, nil
}

// ExecResize resizes an exec instance's TTY.
func (c *Client) ExecResize(ctx context.Context, execID string, height, width uint) error {
	query := url.Values{}
	query.Set("h", strconv.FormatUint(uint64(height), 10))
	query.Set("w", strconv.FormatUint(uint64(width), 10))
	return c.doJSON(ctx, "POST", "/exec/"+execID+"/resize", query, nil, nil)
}

// ExecRun runs cmd inside the container to completion and returns its
// demultiplexed stdout, stderr, and exit code.
func (c *Client) ExecRun(ctx context.Context, containerID string, cmd []string) (stdout, stderr string, exitCode int, err error) {
	execID, err := c.ExecCreate(ctx, containerID, ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", "", 0, err
	}

	session, err := c.ExecAttach(ctx, execID, false)
	if err != nil {
		return "", "", 0, err
	}
	defer session.Close()

	var outBuf, errBuf bytes.Buffer
	if _, err := demux.Copy(&outBuf, &errBuf, session); err != nil {
		return "", "", 0, fmt.Errorf("exec %s in %s: %w", cmd, ShortID(containerID), err)
	}

	detail, err := c.ExecInspect(ctx, execID)
	if err != nil {
		return "", "", 0, err
	}
	return outBuf.String(), errBuf.String(), detail.ExitCode, nil
}

// ContainerAttach attaches to the container's standard streams. The
// options' Tty field must reflect the container's own setting so the
// caller knows whether to demultiplex.
func (c *Client) ContainerAttach(ctx context.Context, id string, opts AttachOptions) (*HijackedStream, error) {
	query := url.Values{}
	query.Set("stream", boolValue(opts.Stream))
	query.Set("stdin", boolValue(opts.Stdin))
	query.Set("stdout", boolValue(opts.Stdout))
	query.Set("stderr", boolValue(opts.Stderr))
	if opts.Logs {
		query.Set("logs", "1")
	}

	conn, err := c.hijack(ctx, "/containers/"+id+"/attach", query, nil)
	if err != nil {
		return nil, err
	}
	return &HijackedStream{conn: conn, Tty: opts.Tty}, nil
}
