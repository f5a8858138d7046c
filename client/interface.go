package client

import (
	"context"

	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcp-harness/schema"
)

// Interface defines the operations scenarios use against the bridge
type Interface interface {
	// Initialize performs the initialize handshake
	Initialize(ctx context.Context) (*schema.InitializeResult, error)

	// ListTools lists tools
	ListTools(ctx context.Context) (*schema.ListToolsResult, error)

	// CallTool calls a tool
	CallTool(ctx context.Context, params *mcpschema.CallToolRequestParams) (*schema.CallToolResult, error)

	// ReadResource reads a resource
	ReadResource(ctx context.Context, params *mcpschema.ReadResourceRequestParams) (*schema.ReadResourceResult, error)

	// GetPrompt gets a prompt
	GetPrompt(ctx context.Context, params *mcpschema.GetPromptRequestParams) (*schema.GetPromptResult, error)

	// Call sends a raw request
	Call(ctx context.Context, method string, params interface{}) (*jsonrpc.Response, error)
}

var _ Interface = &Client{}
