// Package client implements the JSON-RPC client the harness uses to talk to the bridge.
//
// The client writes one request per line through a transport and waits for the matching
// response before anything else is sent; it refuses to pipeline. Responses are checked for
// id correlation and for carrying exactly one of result or error, and are decoded into the
// per-method result types from the schema package:
//   - ParseError: the bridge wrote a line that is not JSON (raw text kept for diagnosis).
//   - ProtocolError: id mismatch, missing id, or malformed envelope.
//   - *jsonrpc.Error: the bridge answered with an error response.
//   - ShapeError: the result does not fit the method's result type.
//
// ParseError, ProtocolError and a closed connection are fatal to a run (see IsFatal); the
// rest are scoped to the call that produced them. A response that arrives after its call
// timed out is discarded rather than treated as a mismatch.
package client
