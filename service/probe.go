package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	afsurl "github.com/viant/afs/url"
	"goa.design/clue/log"

	"github.com/viant/mcp-harness/schema"
)

// Probe calls the service REST API directly to obtain oracle data.
type Probe struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
	maxPages   int
}

type (
	// response is the service envelope for single value endpoints.
	response struct {
		Code int             `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}

	// pageResponse is the service envelope for paged endpoints.
	pageResponse struct {
		Code       int          `json:"code"`
		Msg        string       `json:"msg"`
		Data       []schema.Job `json:"data"`
		Total      int64        `json:"total"`
		PagesTotal int64        `json:"pages_total"`
		Page       int          `json:"page"`
		PageSize   int          `json:"page_size"`
	}

	// JobList is one page of jobs as reported by the service.
	JobList struct {
		Jobs  []schema.Job
		Total int64
		Pages int64
		Page  int
		Size  int
	}
)

// Empty reports whether the page holds no jobs.
func (l *JobList) Empty() bool {
	return len(l.Jobs) == 0
}

// Health checks that the service answers its health endpoint with 200.
func (p *Probe) Health(ctx context.Context) error {
	resp, err := p.get(ctx, "jobs/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ListJobs returns one page of jobs.
func (p *Probe) ListJobs(ctx context.Context, page, size int) (*JobList, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	resp, err := p.get(ctx, "jobs/list", query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	result := &pageResponse{}
	if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("failed to decode job list: %w", err)
	}
	if result.Code != http.StatusOK {
		return nil, &APIError{Endpoint: "jobs/list", Code: result.Code, Msg: result.Msg}
	}
	return &JobList{Jobs: result.Data, Total: result.Total, Pages: result.PagesTotal, Page: result.Page, Size: result.PageSize}, nil
}

// Job returns a single job by id.
func (p *Probe) Job(ctx context.Context, id string) (*schema.Job, error) {
	query := url.Values{}
	query.Set("id", id)
	resp, err := p.get(ctx, "jobs/read", query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	result := &response{}
	if err = json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("failed to decode job %v: %w", id, err)
	}
	if result.Code != http.StatusOK {
		return nil, &APIError{Endpoint: "jobs/read", Code: result.Code, Msg: result.Msg}
	}
	job := &schema.Job{}
	if err = json.Unmarshal(result.Data, job); err != nil {
		return nil, fmt.Errorf("failed to decode job %v: %w", id, err)
	}
	return job, nil
}

// FirstJob returns the first listed job or nil when the service holds none.
func (p *Probe) FirstJob(ctx context.Context) (*schema.Job, error) {
	list, err := p.ListJobs(ctx, 1, 1)
	if err != nil {
		return nil, err
	}
	if list.Empty() {
		return nil, nil
	}
	return &list.Jobs[0], nil
}

// FindJobByName walks the job pages and returns the job with the given name, or nil.
func (p *Probe) FindJobByName(ctx context.Context, name string) (*schema.Job, error) {
	for page := 1; page <= p.maxPages; page++ {
		list, err := p.ListJobs(ctx, page, p.pageSize)
		if err != nil {
			return nil, err
		}
		for i := range list.Jobs {
			if list.Jobs[i].Name == name {
				return &list.Jobs[i], nil
			}
		}
		if len(list.Jobs) < p.pageSize || (list.Pages > 0 && int64(page) >= list.Pages) {
			return nil, nil
		}
	}
	return nil, nil
}

// CountJobs returns the total number of jobs the service reports.
func (p *Probe) CountJobs(ctx context.Context) (int64, error) {
	list, err := p.ListJobs(ctx, 1, 1)
	if err != nil {
		return 0, err
	}
	if list.Total == 0 && !list.Empty() {
		return int64(len(list.Jobs)), nil
	}
	return list.Total, nil
}

func (p *Probe) get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	target := afsurl.Join(p.baseURL, endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{URL: target, Err: err}
	}
	log.Debug(ctx, log.KV{K: "msg", V: "service call"}, log.KV{K: "url", V: target}, log.KV{K: "status", V: resp.StatusCode}, log.KV{K: "elapsed", V: time.Since(started).String()})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, &UnavailableError{URL: target, Status: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

// New creates a probe for the service at baseURL.
func New(baseURL string, options ...Option) *Probe {
	ret := &Probe{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		pageSize:   100,
		maxPages:   50,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
