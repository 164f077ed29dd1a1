// Package tarball builds and extracts the ustar archives the daemon's
// archive endpoints speak.
//
// Build walks a file tree in a deterministic order so the same tree
// always produces the same bytes; Extract refuses any entry whose path
// would land outside the destination root.
package tarball
