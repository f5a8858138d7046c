package service

import (
	"net/http"
	"time"
)

// Option represents probe option
type Option func(p *Probe)

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(p *Probe) {
		if timeout > 0 {
			p.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(p *Probe) {
		p.httpClient = client
	}
}

// WithPageSize sets the page size used when walking the job list
func WithPageSize(size int) Option {
	return func(p *Probe) {
		if size > 0 {
			p.pageSize = size
		}
	}
}
