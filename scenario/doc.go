// Package scenario defines the conformance scenarios and the runner that executes them.
//
// Each scenario optionally fetches ground truth from the service (the oracle), issues one or
// more bridge requests, and compares the two. A scenario whose oracle has no data to work
// with is skipped rather than failed.
package scenario
