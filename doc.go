// Package harness runs the conformance scenarios against a bridge process.
//
// A run checks that the service is healthy, spawns the bridge, performs the initialize
// handshake over its stdio, executes the selected scenarios one at a time and tears the
// bridge down before the report is printed. Any failure before the handshake completes
// aborts the run without executing a scenario.
package harness
