// Package fakeservice is an in-memory stand-in for the job service REST API used in tests.
package fakeservice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/viant/mcp-harness/schema"
)

// Service serves the subset of the job service API the bridge and harness use.
type Service struct {
	*httptest.Server
	mux      sync.Mutex
	jobs     []schema.Job
	nextID   uint
	healthy  bool
	requests []string
}

type envelope struct {
	Code       int         `json:"code"`
	Msg        string      `json:"msg,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Total      int64       `json:"total,omitempty"`
	PagesTotal int64       `json:"pages_total,omitempty"`
	Page       int         `json:"page,omitempty"`
	PageSize   int         `json:"page_size,omitempty"`
}

// New starts a service seeded with jobs.
func New(jobs ...schema.Job) *Service {
	ret := &Service{healthy: true, nextID: 1}
	for _, job := range jobs {
		ret.add(job)
	}
	handler := http.NewServeMux()
	handler.HandleFunc("/jobs/health", ret.health)
	handler.HandleFunc("/jobs/list", ret.list)
	handler.HandleFunc("/jobs/read", ret.read)
	handler.HandleFunc("/jobs/add", ret.create)
	handler.HandleFunc("/jobs/del", ret.remove)
	handler.HandleFunc("/jobs/stop", ret.setState(schema.JobStopped))
	handler.HandleFunc("/jobs/restart", ret.setState(schema.JobWaiting))
	handler.HandleFunc("/jobs/scheduler", ret.static(map[string]interface{}{"tasks": []string{}}))
	handler.HandleFunc("/jobs/functions", ret.static([]map[string]string{{"name": "Test", "desc": "test function"}}))
	handler.HandleFunc("/jobs/config", ret.static(map[string]interface{}{"app": map[string]string{"name": "jobs"}}))
	handler.HandleFunc("/jobs/ip-control/status", ret.static(map[string]interface{}{"enabled": false}))
	handler.HandleFunc("/jobs/zapLogs", ret.static([]string{"started"}))
	ret.Server = httptest.NewServer(ret.record(handler))
	return ret
}

// SetHealthy toggles the health endpoint.
func (s *Service) SetHealthy(healthy bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.healthy = healthy
}

// Jobs returns a snapshot of the stored jobs.
func (s *Service) Jobs() []schema.Job {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]schema.Job{}, s.jobs...)
}

// Requests returns the request paths served so far.
func (s *Service) Requests() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]string{}, s.requests...)
}

func (s *Service) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mux.Lock()
		s.requests = append(s.requests, r.URL.Path)
		s.mux.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Service) add(job schema.Job) uint {
	if job.ID == 0 {
		job.ID = s.nextID
	}
	if job.ID >= s.nextID {
		s.nextID = job.ID + 1
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC().Truncate(time.Second)
		job.UpdatedAt = job.CreatedAt
	}
	s.jobs = append(s.jobs, job)
	return job.ID
}

func (s *Service) health(w http.ResponseWriter, _ *http.Request) {
	s.mux.Lock()
	healthy := s.healthy
	s.mux.Unlock()
	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Code: http.StatusServiceUnavailable, Msg: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Msg: "ok", Data: map[string]interface{}{"app_name": "jobs", "uptime": "1s"}})
}

func (s *Service) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	s.mux.Lock()
	total := int64(len(s.jobs))
	var data []schema.Job
	offset := (page - 1) * size
	if offset < len(s.jobs) {
		end := offset + size
		if end > len(s.jobs) {
			end = len(s.jobs)
		}
		data = append(data, s.jobs[offset:end]...)
	}
	s.mux.Unlock()
	result := envelope{Code: http.StatusOK, Msg: "ok", Total: total, PagesTotal: (total + int64(size) - 1) / int64(size), Page: page, PageSize: size}
	if len(data) > 0 {
		result.Data = data
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Service) read(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, job := range s.jobs {
		if int(job.ID) == id {
			writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Msg: "ok", Data: job})
			return
		}
	}
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusBadRequest, Msg: "job not found"})
}

func (s *Service) create(w http.ResponseWriter, r *http.Request) {
	job := schema.Job{}
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeJSON(w, http.StatusOK, envelope{Code: http.StatusBadRequest, Msg: err.Error()})
		return
	}
	job.ID = 0
	s.mux.Lock()
	id := s.add(job)
	s.mux.Unlock()
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Msg: "created job " + strconv.Itoa(int(id))})
}

type idRequest struct {
	ID uint `json:"id"`
}

func (s *Service) remove(w http.ResponseWriter, r *http.Request) {
	req := idRequest{}
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.mux.Lock()
	defer s.mux.Unlock()
	for i, job := range s.jobs {
		if job.ID == req.ID {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Msg: "deleted"})
			return
		}
	}
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusBadRequest, Msg: "job not found"})
}

func (s *Service) setState(state int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := idRequest{}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mux.Lock()
		defer s.mux.Unlock()
		for i := range s.jobs {
			if s.jobs[i].ID == req.ID {
				s.jobs[i].State = state
				writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Msg: "ok"})
				return
			}
		}
		writeJSON(w, http.StatusOK, envelope{Code: http.StatusBadRequest, Msg: "job not found"})
	}
}

func (s *Service) static(data interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Msg: "ok", Data: data})
	}
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
