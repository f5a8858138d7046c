package schema

import (
	"encoding/json"
	"fmt"

	mcpschema "github.com/viant/mcp-protocol/schema"
)

type (
	// InitializeResult is the initialize response.
	InitializeResult struct {
		ProtocolVersion string                     `json:"protocolVersion"`
		ServerInfo      mcpschema.Implementation   `json:"serverInfo"`
		Capabilities    map[string]json.RawMessage `json:"capabilities,omitempty"`
		Instructions    string                     `json:"instructions,omitempty"`
	}

	// Tool describes one advertised tool.
	Tool struct {
		Name        string          `json:"name"`
		Description string          `json:"description,omitempty"`
		InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	}

	// ListToolsResult is the tools/list response.
	ListToolsResult struct {
		Tools      []Tool  `json:"tools"`
		NextCursor *string `json:"nextCursor,omitempty"`
	}

	// Content is a single content block of a tool or prompt result.
	Content struct {
		Type     string `json:"type"`
		Text     string `json:"text,omitempty"`
		Data     string `json:"data,omitempty"`
		MimeType string `json:"mimeType,omitempty"`
	}

	// CallToolResult is the tools/call response.
	CallToolResult struct {
		Content []Content `json:"content"`
		IsError bool      `json:"isError,omitempty"`
	}

	// ResourceContents is one entry of a resources/read response.
	ResourceContents struct {
		URI      string `json:"uri"`
		MimeType string `json:"mimeType,omitempty"`
		Text     string `json:"text,omitempty"`
		Blob     string `json:"blob,omitempty"`
	}

	// ReadResourceResult is the resources/read response.
	ReadResourceResult struct {
		Contents []ResourceContents `json:"contents"`
	}

	// PromptMessage is one message of a rendered prompt.
	PromptMessage struct {
		Role    string  `json:"role"`
		Content Content `json:"content"`
	}

	// GetPromptResult is the prompts/get response.
	GetPromptResult struct {
		Description string          `json:"description,omitempty"`
		Messages    []PromptMessage `json:"messages"`
	}
)

// HasTool reports whether the named tool is advertised.
func (r *ListToolsResult) HasTool(name string) bool {
	for _, tool := range r.Tools {
		if tool.Name == name {
			return true
		}
	}
	return false
}

// Text returns the first text block of the result.
func (r *CallToolResult) Text() string {
	for _, content := range r.Content {
		if content.Type == "text" || content.Type == "" {
			return content.Text
		}
	}
	return ""
}

// Decode unmarshals the first text block as JSON into dest.
func (r *CallToolResult) Decode(dest interface{}) error {
	text := r.Text()
	if text == "" {
		return fmt.Errorf("tool result has no text content")
	}
	if err := json.Unmarshal([]byte(text), dest); err != nil {
		return fmt.Errorf("failed to decode tool text %q: %w", text, err)
	}
	return nil
}

// Decode unmarshals the first text entry as JSON into dest.
func (r *ReadResourceResult) Decode(dest interface{}) error {
	for _, content := range r.Contents {
		if content.Text == "" {
			continue
		}
		if err := json.Unmarshal([]byte(content.Text), dest); err != nil {
			return fmt.Errorf("failed to decode resource %v: %w", content.URI, err)
		}
		return nil
	}
	return fmt.Errorf("resource result has no text contents")
}
