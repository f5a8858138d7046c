// Package fakebridge is a scriptable JSON-RPC-over-stdio bridge used by tests.
//
// It proxies tool calls and resource reads to a job service the same way the real bridge
// does and can inject faults (garbage lines, wrong ids, silence, early exit) per method,
// tool name or resource URI.
package fakebridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/viant/mcp-harness/schema"
)

// ErrExit is returned by Serve when a request scripted to terminate the bridge is received.
var ErrExit = errors.New("bridge exit requested")

var errResourceNotFound = errors.New("resource not found")

// Config scripts the fake bridge behaviour. Fault maps are keyed by method, tool name or resource URI.
type Config struct {
	ServiceURL     string                   `json:"serviceURL"`
	FailInitialize bool                     `json:"failInitialize,omitempty"`
	HiddenTools    []string                 `json:"hiddenTools,omitempty"`
	ToolErrors     map[string]string        `json:"toolErrors,omitempty"`
	ToolText       map[string]string        `json:"toolText,omitempty"`
	Garbage        map[string]bool          `json:"garbage,omitempty"`
	WrongID        map[string]bool          `json:"wrongID,omitempty"`
	Silent         map[string]bool          `json:"silent,omitempty"`
	Delay          map[string]time.Duration `json:"delay,omitempty"`
	ExitOn         map[string]bool          `json:"exitOn,omitempty"`
	Notify         bool                     `json:"notify,omitempty"`
	NoPrompts      bool                     `json:"noPrompts,omitempty"`
}

type request struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type server struct {
	config Config
	http   *http.Client
	out    *bufio.Writer
}

// Serve reads one request per line from r and writes one response per line to w until r ends.
func Serve(ctx context.Context, r io.Reader, w io.Writer, config Config) error {
	srv := &server{config: config, http: &http.Client{Timeout: 5 * time.Second}, out: bufio.NewWriter(w)}
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if herr := srv.handle(ctx, line); herr != nil {
				return herr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (s *server) handle(ctx context.Context, line []byte) error {
	req := &request{}
	if err := json.Unmarshal(line, req); err != nil {
		return s.write(map[string]interface{}{"jsonrpc": "2.0", "id": nil, "error": rpcError{Code: -32700, Message: "parse error"}})
	}
	if len(req.Id) == 0 {
		return nil // notification
	}
	key := s.key(req)
	if s.config.ExitOn[key] {
		return ErrExit
	}
	if delay := s.config.Delay[key]; delay > 0 {
		time.Sleep(delay)
	}
	if s.config.Silent[key] {
		return nil
	}
	if s.config.Garbage[key] {
		return s.writeLine([]byte("panic: something went wrong"))
	}
	if s.config.Notify {
		if err := s.write(map[string]interface{}{"jsonrpc": "2.0", "method": "notifications/message", "params": map[string]string{"level": "info", "data": "handling " + key}}); err != nil {
			return err
		}
	}
	id := req.Id
	if s.config.WrongID[key] {
		id = json.RawMessage("9999")
	}
	result, rErr := s.dispatch(ctx, req)
	if rErr != nil {
		return s.write(map[string]interface{}{"jsonrpc": "2.0", "id": id, "error": rErr})
	}
	return s.write(map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": result})
}

func (s *server) key(req *request) string {
	switch req.Method {
	case schema.MethodToolsCall:
		params := struct {
			Name string `json:"name"`
		}{}
		_ = json.Unmarshal(req.Params, &params)
		return params.Name
	case schema.MethodResourcesRead:
		params := struct {
			URI string `json:"uri"`
		}{}
		_ = json.Unmarshal(req.Params, &params)
		return params.URI
	}
	return req.Method
}

func (s *server) dispatch(ctx context.Context, req *request) (interface{}, *rpcError) {
	switch req.Method {
	case schema.MethodInitialize:
		if s.config.FailInitialize {
			return nil, &rpcError{Code: schema.InternalError, Message: "initialize failed"}
		}
		return map[string]interface{}{
			"protocolVersion": schema.ProtocolVersion,
			"serverInfo":      map[string]string{"name": "Fake Jobs MCP", "version": "1.0.0"},
			"capabilities":    map[string]interface{}{"tools": map[string]bool{"listChanged": true}, "resources": map[string]bool{}, "prompts": map[string]bool{}},
		}, nil
	case schema.MethodToolsList:
		var tools []schema.Tool
		for _, name := range schema.Tools() {
			if s.hidden(name) {
				continue
			}
			tools = append(tools, schema.Tool{Name: name, Description: "fake " + name, InputSchema: json.RawMessage(`{"type":"object"}`)})
		}
		return schema.ListToolsResult{Tools: tools}, nil
	case schema.MethodToolsCall:
		params := struct {
			Name      string                 `json:"name"`
			Arguments map[string]interface{} `json:"arguments"`
		}{}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &rpcError{Code: schema.InvalidParams, Message: err.Error()}
		}
		if s.hidden(params.Name) {
			return nil, &rpcError{Code: schema.InvalidParams, Message: "tool not found: " + params.Name}
		}
		if text, ok := s.config.ToolErrors[params.Name]; ok {
			return toolResult(text, true), nil
		}
		text, err := s.callTool(ctx, params.Name, params.Arguments)
		if err != nil {
			return toolResult(err.Error(), true), nil
		}
		if override, ok := s.config.ToolText[params.Name]; ok {
			text = override
		}
		return toolResult(text, false), nil
	case schema.MethodResourcesRead:
		params := struct {
			URI string `json:"uri"`
		}{}
		_ = json.Unmarshal(req.Params, &params)
		text, err := s.readResource(ctx, params.URI)
		if errors.Is(err, errResourceNotFound) {
			return nil, &rpcError{Code: schema.ResourceNotFound, Message: err.Error()}
		}
		if err != nil {
			return nil, &rpcError{Code: schema.InternalError, Message: err.Error()}
		}
		return schema.ReadResourceResult{Contents: []schema.ResourceContents{{URI: params.URI, MimeType: "application/json", Text: text}}}, nil
	case schema.MethodPromptsGet:
		params := struct {
			Name string `json:"name"`
		}{}
		_ = json.Unmarshal(req.Params, &params)
		if s.config.NoPrompts || params.Name != schema.PromptSystemHealthReport {
			return nil, &rpcError{Code: schema.InvalidParams, Message: "prompt not found: " + params.Name}
		}
		return schema.GetPromptResult{
			Description: "System health report",
			Messages:    []schema.PromptMessage{{Role: "user", Content: schema.Content{Type: "text", Text: "Summarise the health of the job system."}}},
		}, nil
	}
	return nil, &rpcError{Code: schema.MethodNotFound, Message: "method not found: " + req.Method}
}

func (s *server) hidden(name string) bool {
	for _, candidate := range s.config.HiddenTools {
		if candidate == name {
			return true
		}
	}
	return false
}

func (s *server) callTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	switch name {
	case schema.ToolListJobs:
		page := s.list(ctx, intArg(args, "page", 1), intArg(args, "size", 10))
		if page.err != nil {
			return "", page.err
		}
		return marshal(page.JobPage)
	case schema.ToolGetJob:
		data, err := s.get(ctx, "/jobs/read?id="+stringArg(args, "job_id"))
		if err != nil {
			return "", err
		}
		job := schema.Job{}
		if err = json.Unmarshal(data, &job); err != nil {
			return "", err
		}
		return marshal(bridgeJob(job))
	case schema.ToolCreateJob:
		body := map[string]interface{}{
			"name":      stringArg(args, "name"),
			"command":   stringArg(args, "command"),
			"cron_expr": stringArg(args, "cron_expr"),
			"mode":      stringArg(args, "mode"),
			"desc":      stringArg(args, "desc"),
			"state":     0,
		}
		msg, err := s.post(ctx, "/jobs/add", body)
		if err != nil {
			return "", err
		}
		return "Job created successfully: " + msg, nil
	case schema.ToolDeleteJob, schema.ToolStartJob, schema.ToolStopJob:
		id, err := strconv.ParseUint(stringArg(args, "job_id"), 10, 32)
		if err != nil {
			return "", fmt.Errorf("Invalid job_id format: %v", err)
		}
		endpoint, verb := "/jobs/del", "deleted"
		switch name {
		case schema.ToolStartJob:
			endpoint, verb = "/jobs/restart", "started"
		case schema.ToolStopJob:
			endpoint, verb = "/jobs/stop", "stopped"
		}
		if _, err = s.post(ctx, endpoint, map[string]interface{}{"id": id}); err != nil {
			return "", err
		}
		return fmt.Sprintf("Job %d %s successfully", id, verb), nil
	case schema.ToolSchedulerStatus:
		return s.getText(ctx, "/jobs/scheduler")
	case schema.ToolJobFunctions:
		return s.getText(ctx, "/jobs/functions")
	case schema.ToolJobsConfig:
		return s.getText(ctx, "/jobs/config")
	case schema.ToolIPControlStatus:
		return s.getText(ctx, "/jobs/ip-control/status")
	case schema.ToolSystemLogs:
		return s.getText(ctx, fmt.Sprintf("/jobs/zapLogs?page=%d&size=%d", intArg(args, "page", 1), intArg(args, "size", 10)))
	}
	return "", fmt.Errorf("unknown tool %v", name)
}

func (s *server) readResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case schema.ResourceHealth:
		return s.getText(ctx, "/jobs/health")
	case schema.ResourceJobsOverview:
		page := s.list(ctx, 1, 1000)
		if page.err != nil {
			return "", page.err
		}
		overview := schema.JobsOverview{LastUpdated: time.Now().Format(time.RFC3339)}
		for _, job := range page.Jobs {
			overview.TotalJobs++
			switch job.State {
			case schema.JobWaiting:
				overview.WaitingJobs++
			case schema.JobRunning:
				overview.RunningJobs++
			case schema.JobStopped:
				overview.StoppedJobs++
			}
		}
		return marshal(overview)
	case schema.ResourceConfig:
		return marshal(map[string]interface{}{"server_name": "Fake Jobs", "api_base": s.config.ServiceURL})
	}
	return "", fmt.Errorf("%w: %v", errResourceNotFound, uri)
}

type listed struct {
	schema.JobPage
	err error
}

func (s *server) list(ctx context.Context, page, size int) listed {
	resp := struct {
		Code       int          `json:"code"`
		Msg        string       `json:"msg"`
		Data       []schema.Job `json:"data"`
		Total      int64        `json:"total"`
		PagesTotal int64        `json:"pages_total"`
	}{}
	if err := s.request(ctx, http.MethodGet, fmt.Sprintf("/jobs/list?page=%d&size=%d", page, size), nil, &resp); err != nil {
		return listed{err: err}
	}
	if resp.Code != http.StatusOK {
		return listed{err: fmt.Errorf("API error: %v", resp.Msg)}
	}
	ret := listed{JobPage: schema.JobPage{Jobs: []schema.BridgeJob{}, Total: resp.Total, Page: page, Size: size, Pages: resp.PagesTotal, HasMore: int64(page) < resp.PagesTotal}}
	for _, job := range resp.Data {
		ret.Jobs = append(ret.Jobs, bridgeJob(job))
	}
	return ret
}

func (s *server) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	resp := struct {
		Code int             `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}{}
	if err := s.request(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("API error: %v", resp.Msg)
	}
	return resp.Data, nil
}

func (s *server) getText(ctx context.Context, endpoint string) (string, error) {
	data, err := s.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *server) post(ctx context.Context, endpoint string, body interface{}) (string, error) {
	resp := struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}{}
	if err := s.request(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", err
	}
	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("API error: %v", resp.Msg)
	}
	return resp.Msg, nil
}

func (s *server) request(ctx context.Context, method, endpoint string, body interface{}, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.config.ServiceURL, "/")+endpoint, reader)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("Failed to connect to API: %v", err)
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (s *server) write(value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.writeLine(data)
}

func (s *server) writeLine(data []byte) error {
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		return err
	}
	return s.out.Flush()
}

func bridgeJob(job schema.Job) schema.BridgeJob {
	return schema.BridgeJob{
		ID:       job.IDString(),
		Name:     job.Name,
		Desc:     job.Desc,
		Command:  job.Command,
		CronExpr: job.CronExpr,
		Mode:     job.Mode,
		Status:   schema.Status(job.State),
		State:    job.State,
	}
}

func toolResult(text string, isError bool) schema.CallToolResult {
	return schema.CallToolResult{Content: []schema.Content{{Type: "text", Text: text}}, IsError: isError}
}

func marshal(value interface{}) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func intArg(args map[string]interface{}, name string, defaultValue int) int {
	if value, ok := args[name].(float64); ok {
		return int(value)
	}
	return defaultValue
}

func stringArg(args map[string]interface{}, name string) string {
	value, _ := args[name].(string)
	return value
}
