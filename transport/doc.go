// Package transport frames JSON-RPC messages as newline-terminated lines over a byte stream.
//
// A Channel writes one line per message and flushes it at once, and reads one line per
// response through a single background reader so that a receive can be bounded by a
// timeout. End of stream is reported as ErrConnectionClosed, distinct from ErrTimeout.
// Bytes are passed through untouched, so any UTF-8 text round-trips unchanged.
package transport
