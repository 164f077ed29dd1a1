package docker

import (
	"context"
	"fmt"
	"net/url"

	"github.com/keklick1337/GhostContainers/internal/docker/transport"
)

// Version reports the daemon's version information.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	var version VersionInfo
	if err := c.doJSON(ctx, "GET", "/version", nil, nil, &version); err != nil {
		return VersionInfo{}, err
	}
	return version, nil
}

// Info reports system-wide daemon information.
func (c *Client) Info(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := c.doJSON(ctx, "GET", "/info", nil, nil, &info); err != nil {
		return SystemInfo{}, err
	}
	return info, nil
}

// Ping checks daemon reachability. The daemon answers the probe with a
// plain OK body.
func (c *Client) Ping(ctx context.Context) error {
	req := transport.NewRequest("GET", "/_ping")
	data, err := c.exchange(ctx, req)
	if err != nil {
		return err
	}
	if string(data) != "OK" {
		return fmt.Errorf("GET /_ping: unexpected response %q", data)
	}
	return nil
}

// Events subscribes to the daemon's event stream. The stream stays
// open until closed or the context is canceled; historical events are
// included when opts.Since is set.
func (c *Client) Events(ctx context.Context, opts EventsOptions) (*EventStream, error) {
	query := url.Values{}
	if opts.Since != "" {
		query.Set("since", opts.Since)
	}
	if opts.Until != "" {
		query.Set("until", opts.Until)
	}
	if encoded, err := encodeFilters(opts.Filters); err != nil {
		return nil, err
	} else if encoded != "" {
		query.Set("filters", encoded)
	}

	body, err := c.stream(ctx, "GET", "/events", query, nil)
	if err != nil {
		return nil, err
	}
	return newEventStream(body), nil
}
