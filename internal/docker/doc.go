// Package docker is a from-scratch Docker Engine API client. It talks
// to the daemon's Unix socket directly through the transport package
// instead of an SDK, and exposes one typed operation per daemon
// capability: container, image, and network lifecycle, exec, logs,
// events, stats, and archive copy in both directions.
//
// A Client is safe for concurrent use; every operation performs its
// exchange on its own connection.
package docker
