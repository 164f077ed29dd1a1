package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/keklick1337/GhostContainers/internal/docker/transport"
	"github.com/keklick1337/GhostContainers/internal/tarball"
)

// CopyTo uploads a tar archive into the container, extracted by the
// daemon under destPath. destPath must name an existing directory
// inside the container.
func (c *Client) CopyTo(ctx context.Context, id, destPath string, archive []byte) error {
	query := url.Values{}
	query.Set("path", destPath)

	req := transport.NewRequest("PUT", "/containers/"+id+"/archive")
	req.Query = query
	req.Body = bytes.NewReader(archive)
	req.ContentLength = int64(len(archive))
	req.Header.Set("Content-Type", "application/x-tar")

	_, err := c.exchange(ctx, req)
	return err
}

// CopyFrom downloads srcPath from the container as a tar stream. The
// caller owns the returned reader and must close it.
func (c *Client) CopyFrom(ctx context.Context, id, srcPath string) (io.ReadCloser, error) {
	query := url.Values{}
	query.Set("path", srcPath)
	return c.stream(ctx, "GET", "/containers/"+id+"/archive", query, nil)
}

// UploadPath archives the local file or directory tree at localPath
// and places it under destDir inside the container.
func (c *Client) UploadPath(ctx context.Context, id, localPath, destDir string) error {
	archive, err := tarball.Build(localPath)
	if err != nil {
		return fmt.Errorf("failed to archive %q for upload: %w", localPath, err)
	}
	return c.CopyTo(ctx, id, destDir, archive)
}

// UploadFile places a single local file into the container directory
// destDir, optionally renamed.
func (c *Client) UploadFile(ctx context.Context, id, localPath, destDir, name string) error {
	archive, err := tarball.BuildFile(localPath, name)
	if err != nil {
		return fmt.Errorf("failed to archive %q for upload: %w", localPath, err)
	}
	return c.CopyTo(ctx, id, destDir, archive)
}

// DownloadPath copies srcPath out of the container and extracts it
// under localDir, returning the entries written. The daemon names the
// archive's top-level entry after the base of srcPath.
func (c *Client) DownloadPath(ctx context.Context, id, srcPath, localDir string) ([]tarball.Entry, error) {
	body, err := c.CopyFrom(ctx, id, srcPath)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	entries, err := tarball.Extract(body, localDir)
	if err != nil {
		return entries, fmt.Errorf("failed to extract %s:%s: %w", ShortID(id), path.Clean(srcPath), err)
	}
	return entries, nil
}
