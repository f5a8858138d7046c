// Package bridge supervises the bridge process under test.
//
// A Supervisor spawns the configured executable with piped stdin, stdout and stderr.
// The returned Process exposes the pipes to the transport layer, drains stderr into
// the debug log while keeping a short tail for diagnostics, and tears the process down
// exactly once: stdin is closed, SIGTERM is sent, and the process is killed if it is
// still running after the grace period.
package bridge
