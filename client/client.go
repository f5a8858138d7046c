package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"
	"goa.design/clue/log"

	"github.com/viant/mcp-harness/internal/collection"
	"github.com/viant/mcp-harness/schema"
	"github.com/viant/mcp-harness/transport"
)

var errUninitialized = fmt.Errorf("client is not initialized")

// Transport is the line oriented channel a client talks through.
type Transport interface {
	SendLine(ctx context.Context, text []byte) error
	ReceiveLine(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Client sends one JSON-RPC request at a time over a line transport.
type Client struct {
	info            mcpschema.Implementation
	protocolVersion string
	transport       Transport
	timeout         time.Duration
	startupTimeout  time.Duration
	initialized     bool
	lastID          uint64
	inflight        bool
	abandoned       *collection.SyncMap[uint64, time.Time]
	mux             sync.Mutex
}

// message is the minimal view of an inbound line used to classify it before decoding.
type message struct {
	Id     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func (m *message) hasId() bool {
	return len(m.Id) > 0 && !bytes.Equal(m.Id, []byte("null"))
}

func (m *message) hasError() bool {
	return len(m.Error) > 0 && !bytes.Equal(m.Error, []byte("null"))
}

func (c *Client) isInitialized() bool {
	return c.initialized
}

// Initialize performs the initialize handshake. It must be the first call on a client.
func (c *Client) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	params := &mcpschema.InitializeRequestParams{
		Capabilities:    mcpschema.ClientCapabilities{},
		ClientInfo:      c.info,
		ProtocolVersion: c.protocolVersion,
	}
	response, err := c.call(ctx, schema.MethodInitialize, params, c.startupTimeout)
	if err != nil {
		return nil, err
	}
	result := &schema.InitializeResult{}
	if err = decode(schema.MethodInitialize, response.Result, result); err != nil {
		return nil, err
	}
	c.initialized = true
	return result, nil
}

// ListTools lists the tools advertised by the bridge.
func (c *Client) ListTools(ctx context.Context) (*schema.ListToolsResult, error) {
	params := &mcpschema.ListToolsRequestParams{}
	return send[mcpschema.ListToolsRequestParams, schema.ListToolsResult](ctx, c, schema.MethodToolsList, params)
}

// CallTool calls a bridge tool.
func (c *Client) CallTool(ctx context.Context, params *mcpschema.CallToolRequestParams) (*schema.CallToolResult, error) {
	return send[mcpschema.CallToolRequestParams, schema.CallToolResult](ctx, c, schema.MethodToolsCall, params)
}

// ReadResource reads a bridge resource.
func (c *Client) ReadResource(ctx context.Context, params *mcpschema.ReadResourceRequestParams) (*schema.ReadResourceResult, error) {
	return send[mcpschema.ReadResourceRequestParams, schema.ReadResourceResult](ctx, c, schema.MethodResourcesRead, params)
}

// GetPrompt renders a bridge prompt.
func (c *Client) GetPrompt(ctx context.Context, params *mcpschema.GetPromptRequestParams) (*schema.GetPromptResult, error) {
	return send[mcpschema.GetPromptRequestParams, schema.GetPromptResult](ctx, c, schema.MethodPromptsGet, params)
}

// Call sends a request and waits for its response. A bridge error response is
// returned as *jsonrpc.Error together with the response.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (*jsonrpc.Response, error) {
	return c.call(ctx, method, params, c.timeout)
}

func (c *Client) call(ctx context.Context, method string, params interface{}, timeout time.Duration) (*jsonrpc.Response, error) {
	c.mux.Lock()
	if c.inflight {
		c.mux.Unlock()
		return nil, &ProtocolError{Method: method, Reason: "request sent while another is outstanding"}
	}
	c.inflight = true
	c.lastID++
	id := c.lastID
	c.mux.Unlock()
	defer func() {
		c.mux.Lock()
		c.inflight = false
		c.mux.Unlock()
	}()

	req, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build %v request: %w", method, err)
	}
	req.Id = id
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %v request: %w", method, err)
	}
	log.Debug(ctx, log.KV{K: "msg", V: "send"}, log.KV{K: "method", V: method}, log.KV{K: "id", V: id})
	if err = c.transport.SendLine(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to send %v: %w", method, err)
	}
	return c.receive(ctx, method, id, timeout)
}

func (c *Client) receive(ctx context.Context, method string, id uint64, timeout time.Duration) (*jsonrpc.Response, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.abandon(id)
			return nil, fmt.Errorf("%v (id %d): %w", method, id, transport.ErrTimeout)
		}
		line, err := c.transport.ReceiveLine(ctx, remaining)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				c.abandon(id)
			}
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %v", transport.ErrTimeout, err)
			}
			return nil, fmt.Errorf("%v (id %d): %w", method, id, err)
		}
		log.Debug(ctx, log.KV{K: "msg", V: "receive"}, log.KV{K: "method", V: method}, log.KV{K: "bytes", V: len(line)})

		msg := &message{}
		if err = json.Unmarshal(line, msg); err != nil {
			return nil, &ParseError{Method: method, Raw: string(line), Err: err}
		}
		if msg.Method != "" {
			// server initiated notification or request; the harness does not answer them
			log.Debug(ctx, log.KV{K: "msg", V: "skipping server message"}, log.KV{K: "method", V: msg.Method})
			continue
		}
		if !msg.hasId() {
			return nil, &ProtocolError{Method: method, Reason: "response without id", Raw: string(line)}
		}
		got, err := parseId(msg.Id)
		if err != nil {
			return nil, &ProtocolError{Method: method, Reason: err.Error(), Raw: string(line)}
		}
		if got != id {
			if abandonedAt, ok := c.abandoned.Take(got); ok {
				log.Debug(ctx, log.KV{K: "msg", V: "discarding late response"}, log.KV{K: "id", V: got}, log.KV{K: "late", V: time.Since(abandonedAt).String()})
				continue
			}
			return nil, &ProtocolError{Method: method, Reason: fmt.Sprintf("response id %d does not match request id %d", got, id), Raw: string(line)}
		}
		hasResult := len(msg.Result) > 0
		hasError := msg.hasError()
		switch {
		case hasResult && hasError:
			return nil, &ProtocolError{Method: method, Reason: "response carries both result and error", Raw: string(line)}
		case !hasResult && !hasError:
			return nil, &ProtocolError{Method: method, Reason: "response carries neither result nor error", Raw: string(line)}
		}
		response := &jsonrpc.Response{}
		if err = json.Unmarshal(line, response); err != nil {
			return nil, &ParseError{Method: method, Raw: string(line), Err: err}
		}
		if response.Error != nil {
			return response, response.Error
		}
		return response, nil
	}
}

func (c *Client) abandon(id uint64) {
	c.abandoned.Put(id, time.Now())
}

func parseId(raw json.RawMessage) (uint64, error) {
	text := string(bytes.Trim(raw, `"`))
	ret, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid response id %s", raw)
	}
	return ret, nil
}

func decode(method string, data json.RawMessage, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return &ShapeError{Method: method, Raw: string(data), Err: err}
	}
	return nil
}

// New creates a client over the supplied transport.
func New(name, version string, aTransport Transport, options ...Option) *Client {
	ret := &Client{
		info:            mcpschema.Implementation{Name: name, Version: version},
		protocolVersion: schema.ProtocolVersion,
		transport:       aTransport,
		timeout:         10 * time.Second,
		startupTimeout:  15 * time.Second,
		abandoned:       collection.NewSyncMap[uint64, time.Time](),
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func send[P any, R any](ctx context.Context, client *Client, method string, parameters *P) (*R, error) {
	if !client.isInitialized() { //ensure initialized
		return nil, errUninitialized
	}
	response, err := client.Call(ctx, method, parameters)
	if err != nil {
		return nil, err
	}
	var result R
	if err = decode(method, response.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
