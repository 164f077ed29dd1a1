package docker

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/keklick1337/GhostContainers/internal/docker/jsonstream"
	"github.com/keklick1337/GhostContainers/internal/docker/transport"
	"github.com/keklick1337/GhostContainers/internal/tarball"
)

// ImageList returns local image summaries.
func (c *Client) ImageList(ctx context.Context, all bool) ([]ImageSummary, error) {
	query := url.Values{}
	if all {
		query.Set("all", "true")
	}
	var images []ImageSummary
	if err := c.doJSON(ctx, "GET", "/images/json", query, nil, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// ImageInspect returns details for an image by name or ID.
func (c *Client) ImageInspect(ctx context.Context, ref string) (ImageDetail, error) {
	var detail ImageDetail
	if err := c.doJSON(ctx, "GET", "/images/"+ref+"/json", nil, nil, &detail); err != nil {
		return ImageDetail{}, err
	}
	return detail, nil
}

// ImagePull pulls an image through the daemon, reporting progress to
// the optional callback as the daemon streams it. The exchange stays
// open for the duration of the pull.
func (c *Client) ImagePull(ctx context.Context, ref string, progress func(PullProgress)) error {
	repo, tag := splitImageRef(ref)
	query := url.Values{}
	query.Set("fromImage", repo)
	query.Set("tag", tag)

	body, err := c.stream(ctx, "POST", "/images/create", query, nil)
	if err != nil {
		return err
	}
	defer body.Close()

	dec := jsonstream.NewDecoder(body)
	for {
		var msg PullProgress
		if err := dec.Decode(&msg); err != nil {
			if isCleanEnd(err) {
				return nil
			}
			return fmt.Errorf("POST /images/create: %w", err)
		}
		if msg.Error != "" {
			return fmt.Errorf("failed to pull image %q: %s", ref, msg.Error)
		}
		if progress != nil {
			progress(msg)
		}
	}
}

// ImageBuild builds an image from the build context directory,
// streaming daemon output lines to the optional callback. The context
// is shipped as a tar archive built by the tarball package.
func (c *Client) ImageBuild(ctx context.Context, contextDir string, opts BuildOptions, output func(string)) error {
	archive, err := tarball.Build(contextDir)
	if err != nil {
		return fmt.Errorf("failed to archive build context %q: %w", contextDir, err)
	}

	query := url.Values{}
	for _, tag := range opts.Tags {
		query.Add("t", tag)
	}
	if opts.Dockerfile != "" {
		query.Set("dockerfile", opts.Dockerfile)
	}
	if opts.Remove {
		query.Set("rm", "1")
	}
	if opts.NoCache {
		query.Set("nocache", "1")
	}
	if opts.Platform != "" {
		query.Set("platform", opts.Platform)
	}
	if len(opts.BuildArgs) > 0 {
		args, err := jsonstream.Encode(opts.BuildArgs)
		if err != nil {
			return fmt.Errorf("failed to encode build args: %w", err)
		}
		query.Set("buildargs", string(args))
	}

	req := transport.NewRequest("POST", "/build")
	req.Query = query
	req.Body = bytes.NewReader(archive)
	req.ContentLength = int64(len(archive))
	req.Header.Set("Content-Type", "application/x-tar")

	resp, err := c.http.DoStream(ctx, req)
	if err != nil {
		return fmt.Errorf("POST /build: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := resp.Bytes()
		return newAPIError("POST", "/build", resp.StatusCode, data)
	}
	defer resp.Body.Close()

	dec := jsonstream.NewDecoder(resp.Body)
	for {
		var msg struct {
			Stream      string `json:"stream"`
			ErrorDetail struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"errorDetail"`
		}
		if err := dec.Decode(&msg); err != nil {
			if isCleanEnd(err) {
				return nil
			}
			return fmt.Errorf("POST /build: %w", err)
		}
		if msg.ErrorDetail.Message != "" {
			return fmt.Errorf("docker build failed: %s\nCheck your Dockerfile syntax and base image availability", msg.ErrorDetail.Message)
		}
		if output != nil && msg.Stream != "" {
			output(msg.Stream)
		}
	}
}

// ImageRemove deletes a local image.
func (c *Client) ImageRemove(ctx context.Context, ref string, force bool) error {
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	return c.doJSON(ctx, "DELETE", "/images/"+ref, query, nil, nil)
}

// ImageTag applies repo:tag to an existing image.
func (c *Client) ImageTag(ctx context.Context, ref, repo, tag string) error {
	query := url.Values{}
	query.Set("repo", repo)
	if tag != "" {
		query.Set("tag", tag)
	}
	return c.doJSON(ctx, "POST", "/images/"+ref+"/tag", query, nil, nil)
}

// splitImageRef separates "repo:tag", defaulting the tag to latest.
// The split is on the last colon so registry ports survive.
func splitImageRef(ref string) (repo, tag string) {
	if i := strings.LastIndex(ref, ":"); i > 0 && !strings.Contains(ref[i+1:], "/") {
		return ref[:i], ref[i+1:]
	}
	return ref, "latest"
}
