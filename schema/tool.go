package schema

import (
	"encoding/json"

	mcpschema "github.com/viant/mcp-protocol/schema"
)

// NewCallToolRequestParams builds tools/call params from a typed argument struct.
func NewCallToolRequestParams[T any](name string, args *T) (*mcpschema.CallToolRequestParams, error) {
	results := &mcpschema.CallToolRequestParams{Name: name, Arguments: map[string]interface{}{}}
	if args == nil {
		return results, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(data, &results.Arguments)
	if err != nil {
		return nil, err
	}
	return results, nil
}
