package tarball

import (
	"fmt"
	"io/fs"
	"time"
)

// EntryType distinguishes the archive member kinds we handle.
type EntryType int

const (
	TypeFile EntryType = iota
	TypeDir
	TypeSymlink
)

func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "directory"
	case TypeSymlink:
		return "symlink"
	}
	return "unknown"
}

// Entry describes one extracted archive member. Path is always
// relative to the extraction root and never contains ".." segments.
type Entry struct {
	Path     string
	Type     EntryType
	Mode     fs.FileMode
	Size     int64
	ModTime  time.Time
	Linkname string
}

// ArchiveError is a malformed header, a checksum mismatch, or an entry
// whose path would escape the extraction root.
type ArchiveError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ArchiveError) Error() string {
	msg := "archive error"
	if e.Path != "" {
		msg = fmt.Sprintf("archive error at %q", e.Path)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ArchiveError) Unwrap() error { return e.Err }
