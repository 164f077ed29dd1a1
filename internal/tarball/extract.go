package tarball

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Extract unpacks the archive read from r under destRoot and returns
// the entries it created, parents before children. Headers are
// validated as they are parsed (the tar reader includes the checksum
// in its format verification) and any entry whose normalized path
// would escape destRoot fails the whole extraction before anything is
// written outside the root.
func Extract(r io.Reader, destRoot string) ([]Entry, error) {
	tr := tar.NewReader(r)
	var entries []Entry

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, &ArchiveError{Reason: "invalid archive header", Err: err}
		}

		name := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if name == "." || name == "" {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return entries, &ArchiveError{Path: hdr.Name, Reason: "path escapes extraction root"}
		}
		target := filepath.Join(destRoot, filepath.FromSlash(name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(hdr.Mode)&fs.ModePerm); err != nil {
				return entries, fmt.Errorf("failed to create directory %q: %w", name, err)
			}
			entries = append(entries, Entry{
				Path:    name,
				Type:    TypeDir,
				Mode:    fs.FileMode(hdr.Mode) & fs.ModePerm,
				ModTime: hdr.ModTime,
			})

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return entries, fmt.Errorf("failed to create parent directory for %q: %w", name, err)
			}
			if err := writeFile(target, tr, fs.FileMode(hdr.Mode)&fs.ModePerm); err != nil {
				return entries, fmt.Errorf("failed to extract %q: %w", name, err)
			}
			_ = os.Chtimes(target, hdr.ModTime, hdr.ModTime)
			entries = append(entries, Entry{
				Path:    name,
				Type:    TypeFile,
				Mode:    fs.FileMode(hdr.Mode) & fs.ModePerm,
				Size:    hdr.Size,
				ModTime: hdr.ModTime,
			})

		case tar.TypeSymlink:
			if err := checkLinkTarget(name, hdr.Linkname); err != nil {
				return entries, err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return entries, fmt.Errorf("failed to create parent directory for %q: %w", name, err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return entries, fmt.Errorf("failed to create symlink %q: %w", name, err)
			}
			entries = append(entries, Entry{
				Path:     name,
				Type:     TypeSymlink,
				Mode:     fs.FileMode(hdr.Mode) & fs.ModePerm,
				ModTime:  hdr.ModTime,
				Linkname: hdr.Linkname,
			})

		default:
			// Hard links, devices, and pax metadata records are not
			// produced by the daemon's archive endpoint for the paths
			// this application copies; skip them.
			continue
		}
	}
}

// checkLinkTarget rejects symlinks whose target resolves outside the
// extraction root.
func checkLinkTarget(name, linkname string) error {
	if linkname == "" {
		return &ArchiveError{Path: name, Reason: "symlink with empty target"}
	}
	if path.IsAbs(linkname) || filepath.IsAbs(linkname) {
		return &ArchiveError{Path: name, Reason: "symlink target is absolute"}
	}
	resolved := path.Join(path.Dir(name), path.Clean(linkname))
	if !filepath.IsLocal(filepath.FromSlash(resolved)) {
		return &ArchiveError{Path: name, Reason: "symlink target escapes extraction root"}
	}
	return nil
}

func writeFile(target string, r io.Reader, mode fs.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the member names of the archive in order without
// writing anything to disk.
func List(r io.Reader) ([]string, error) {
	tr := tar.NewReader(r)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return names, &ArchiveError{Reason: "invalid archive header", Err: err}
		}
		names = append(names, hdr.Name)
	}
}
