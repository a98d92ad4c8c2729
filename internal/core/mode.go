// Package core is the orchestration layer.  It composes the transport,
// protocol and operator packages into a running server and provides a
// builder that turns a Config into that server.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  irc  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete operational mode of iris.  It owns its full
// lifecycle from binding the listener to tearing down the last
// connection.
type Mode interface {
	Run(ctx context.Context) error
}
