// Package schema defines the wire shapes the harness exchanges with the bridge and the service.
//
// Each JSON-RPC method the harness sends has its own result type, which the client's typed
// calls decode a response into rather than an untyped map. The package also
// carries the job domain types used to compare bridge output with the service oracle.
package schema
