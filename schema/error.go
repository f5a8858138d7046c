package schema

import (
	"fmt"

	"github.com/viant/jsonrpc"
)

// JSON-RPC error codes a bridge answers with.
const (
	MethodNotFound   = -32601
	InvalidParams    = -32602
	InternalError    = -32603
	ResourceNotFound = -32002
)

// DescribeError renders an application error returned by the bridge.
func DescribeError(err *jsonrpc.Error) string {
	if err == nil {
		return ""
	}
	ret := fmt.Sprintf("code %d: %s", err.Code, err.Message)
	if len(err.Data) > 0 {
		ret += fmt.Sprintf(" (%s)", err.Data)
	}
	return ret
}
