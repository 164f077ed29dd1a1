package tarball

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Build archives the file or directory tree rooted at root and returns
// the complete tar bytes.
func Build(root string) ([]byte, error) {
	var buf bytes.Buffer
	if err := BuildTo(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildTo streams the archive of root into w. Directories are walked
// in lexical order, so parents always precede children and the same
// tree produces byte-identical output. Symbolic links are stored as
// link entries, never followed.
func BuildTo(w io.Writer, root string) error {
	info, err := os.Lstat(root)
	if err != nil {
		return fmt.Errorf("failed to stat archive source %q: %w", root, err)
	}

	tw := tar.NewWriter(w)

	if !info.IsDir() {
		if err := writeEntry(tw, root, filepath.Base(root), info); err != nil {
			return err
		}
		return tw.Close()
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return writeEntry(tw, p, filepath.ToSlash(rel), info)
	})
	if err != nil {
		return fmt.Errorf("failed to archive %q: %w", root, err)
	}
	return tw.Close()
}

// BuildFile archives a single file under the given archive name. An
// empty arcname falls back to the file's base name.
func BuildFile(path, arcname string) ([]byte, error) {
	if arcname == "" {
		arcname = filepath.Base(path)
	}
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := writeEntry(tw, path, arcname, info); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEntry(tw *tar.Writer, fsPath, arcname string, info fs.FileInfo) error {
	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(fsPath)
		if err != nil {
			return fmt.Errorf("failed to read symlink %q: %w", fsPath, err)
		}
		link = target
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("failed to build header for %q: %w", fsPath, err)
	}
	hdr.Name = arcname
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Format = tar.FormatUSTAR
	hdr.ModTime = hdr.ModTime.Truncate(time.Second)
	hdr.Uname = ""
	hdr.Gname = ""

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write header for %q: %w", arcname, err)
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(fsPath)
		if err != nil {
			return fmt.Errorf("failed to open %q: %w", fsPath, err)
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("failed to write %q: %w", arcname, err)
		}
	}
	return nil
}
