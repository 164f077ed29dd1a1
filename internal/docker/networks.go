package docker

import (
	"context"
	"net/url"
)

// NetworkCreate creates a network and returns its ID plus any daemon
// warning.
func (c *Client) NetworkCreate(ctx context.Context, opts NetworkCreateOptions) (NetworkCreateResponse, error) {
	var created NetworkCreateResponse
	if err := c.doJSON(ctx, "POST", "/networks/create", nil, opts, &created); err != nil {
		return NetworkCreateResponse{}, err
	}
	return created, nil
}

// NetworkList returns summaries of the daemon's networks.
func (c *Client) NetworkList(ctx context.Context, filters map[string][]string) ([]NetworkSummary, error) {
	query := url.Values{}
	if encoded, err := encodeFilters(filters); err != nil {
		return nil, err
	} else if encoded != "" {
		query.Set("filters", encoded)
	}

	var networks []NetworkSummary
	if err := c.doJSON(ctx, "GET", "/networks", query, nil, &networks); err != nil {
		return nil, err
	}
	return networks, nil
}

// NetworkInspect returns a network's configuration and the containers
// attached to it.
func (c *Client) NetworkInspect(ctx context.Context, id string) (NetworkDetail, error) {
	var detail NetworkDetail
	if err := c.doJSON(ctx, "GET", "/networks/"+id, nil, nil, &detail); err != nil {
		return NetworkDetail{}, err
	}
	return detail, nil
}

// NetworkRemove deletes a network. Networks with attached containers
// cannot be removed; the daemon answers with a conflict.
func (c *Client) NetworkRemove(ctx context.Context, id string) error {
	return c.doJSON(ctx, "DELETE", "/networks/"+id, nil, nil, nil)
}

// NetworkPrune deletes unused networks and returns the names of those
// removed.
func (c *Client) NetworkPrune(ctx context.Context) ([]string, error) {
	var pruned struct {
		NetworksDeleted []string `json:"NetworksDeleted"`
	}
	if err := c.doJSON(ctx, "POST", "/networks/prune", nil, nil, &pruned); err != nil {
		return nil, err
	}
	return pruned.NetworksDeleted, nil
}

// NetworkConnect attaches a container to the network, optionally with
// aliases the network's embedded DNS resolves to the container.
func (c *Client) NetworkConnect(ctx context.Context, networkID, containerID string, aliases []string) error {
	payload := struct {
		Container      string `json:"Container"`
		EndpointConfig *struct {
			Aliases []string `json:"Aliases,omitempty"`
		} `json:"EndpointConfig,omitempty"`
	}{Container: containerID}
	if len(aliases) > 0 {
		payload.EndpointConfig = &struct {
			Aliases []string `json:"Aliases,omitempty"`
		}{Aliases: aliases}
	}
	return c.doJSON(ctx, "POST", "/networks/"+networkID+"/connect", nil, payload, nil)
}

// NetworkDisconnect detaches a container from the network.
func (c *Client) NetworkDisconnect(ctx context.Context, networkID, containerID string, force bool) error {
	payload := struct {
		Container string `json:"Container"`
		Force     bool   `json:"Force"`
	}{Container: containerID, Force: force}
	return c.doJSON(ctx, "POST", "/networks/"+networkID+"/disconnect", nil, payload, nil)
}
