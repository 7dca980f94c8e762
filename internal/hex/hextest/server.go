// Package hextest provides an in-memory fake of the Hex project run API for
// tests. Runs follow scripted status sequences; the last status repeats once
// the script is exhausted.
package hextest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultToken is the bearer token New accepts when none is given
const DefaultToken = "hextest-token"

const defaultPageSize = 25

var startedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// Request is a request the server received
type Request struct {
	Method string
	// Path is relative to /api/v1
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the request body into a generic map
func (r Request) JSON() map[string]any {
	var out map[string]any
	_ = json.Unmarshal(r.Body, &out)
	return out
}

// Failure is a canned error response
type Failure struct {
	StatusCode int
	Body       string
}

type run struct {
	projectID string
	runID     string
	statuses  []string
	polls     int
	triggered bool
	cancelled bool
}

func (r *run) current() string {
	i := r.polls
	if i >= len(r.statuses) {
		i = len(r.statuses) - 1
	}
	return r.statuses[i]
}

// Server is a fake Hex API served over httptest
type Server struct {
	*httptest.Server

	token string

	mu       sync.Mutex
	runs     map[string]*run
	order    map[string][]string
	requests []Request
	failures map[string][]Failure
	nextRun  int
	nextID   int
}

// New starts a fake Hex API accepting token. The server is closed when the
// test ends.
func New(t testing.TB, token string) *Server {
	t.Helper()
	if token == "" {
		token = DefaultToken
	}

	s := &Server{
		token:    token,
		runs:     make(map[string]*run),
		order:    make(map[string][]string),
		failures: make(map[string][]Failure),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Domain returns the value to use as the credentials domain
func (s *Server) Domain() string {
	return s.URL
}

// Token returns the accepted bearer token
func (s *Server) Token() string {
	return s.token
}

// ScriptRun registers a run with the statuses successive polls return. The
// next trigger of projectID hands out the earliest scripted run that has not
// been triggered yet. Without a script a triggered run completes on the
// first poll.
func (s *Server) ScriptRun(projectID, runID string, statuses ...string) {
	if len(statuses) == 0 {
		statuses = []string{"COMPLETED"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[key(projectID, runID)]; !ok {
		s.order[projectID] = append(s.order[projectID], runID)
	}
	s.runs[key(projectID, runID)] = &run{
		projectID: projectID,
		runID:     runID,
		statuses:  statuses,
	}
}

// FailNext makes the next request matching method and path (relative to
// /api/v1) fail with the given response
func (s *Server) FailNext(method, path string, statusCode int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := method + " " + path
	s.failures[k] = append(s.failures[k], Failure{StatusCode: statusCode, Body: body})
}

// Requests returns every request received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Polls returns how many status requests a run has served
func (s *Server) Polls(projectID, runID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[key(projectID, runID)]; ok {
		return r.polls
	}
	return 0
}

// Cancelled reports whether a run was cancelled
func (s *Server) Cancelled(projectID, runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[key(projectID, runID)]
	return ok && r.cancelled
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.authenticate)
	r.Use(s.injectFailures)

	r.Route("/api/v1/project/{projectID}", func(r chi.Router) {
		r.Post("/run", s.handleRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/run/{runID}", s.handleStatus)
		r.Delete("/run/{runID}", s.handleCancel)
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, "/api/v1"),
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			s.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api/v1")

		s.mu.Lock()
		queue := s.failures[k]
		var failure *Failure
		if len(queue) > 0 {
			failure = &queue[0]
			s.failures[k] = queue[1:]
		}
		s.mu.Unlock()

		if failure != nil {
			w.WriteHeader(failure.StatusCode)
			_, _ = io.WriteString(w, failure.Body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, hasInputs := body["inputParams"]; hasInputs && body["updateCache"] == true {
		s.writeError(w, http.StatusBadRequest, "updateCache cannot be combined with inputParams")
		return
	}

	s.mu.Lock()
	rn := s.claimRun(projectID)
	traceID := s.traceID()
	s.mu.Unlock()

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"projectId":    rn.projectID,
		"runId":        rn.runID,
		"runStatusUrl": fmt.Sprintf("%s/api/v1/project/%s/run/%s", s.URL, rn.projectID, rn.runID),
		"runUrl":       s.runURL(rn),
		"traceId":      traceID,
	})
}

// claimRun must be called with s.mu held
func (s *Server) claimRun(projectID string) *run {
	for _, runID := range s.order[projectID] {
		if rn := s.runs[key(projectID, runID)]; !rn.triggered {
			rn.triggered = true
			return rn
		}
	}

	s.nextRun++
	rn := &run{
		projectID: projectID,
		runID:     "run-" + strconv.Itoa(s.nextRun),
		statuses:  []string{"COMPLETED"},
		triggered: true,
	}
	s.runs[key(projectID, rn.runID)] = rn
	s.order[projectID] = append(s.order[projectID], rn.runID)
	return rn
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rn, ok := s.runs[key(chi.URLParam(r, "projectID"), chi.URLParam(r, "runID"))]
	if !ok {
		s.mu.Unlock()
		s.writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	payload := s.statusPayload(rn)
	rn.polls++
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rn, ok := s.runs[key(chi.URLParam(r, "projectID"), chi.URLParam(r, "runID"))]
	if ok {
		rn.cancelled = true
		rn.statuses = []string{"KILLED"}
		rn.polls = 0
	}
	s.mu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	query := r.URL.Query()

	limit, err := intParam(query, "limit", defaultPageSize)
	if err != nil || limit < 1 || limit > 100 {
		s.writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	offset, err := intParam(query, "offset", 0)
	if err != nil || offset < 0 {
		s.writeError(w, http.StatusBadRequest, "Invalid offset")
		return
	}
	statusFilter := query.Get("statusFilter")

	s.mu.Lock()
	matched := make([]map[string]any, 0)
	for _, runID := range s.order[projectID] {
		rn := s.runs[key(projectID, runID)]
		if statusFilter != "" && rn.current() != statusFilter {
			continue
		}
		matched = append(matched, s.statusPayload(rn))
	}
	traceID := s.traceID()
	s.mu.Unlock()

	page := make([]map[string]any, 0)
	if offset < len(matched) {
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		page = matched[offset:end]
	}

	var next, previous any
	if offset+limit < len(matched) {
		next = fmt.Sprintf("offset=%d", offset+limit)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		previous = fmt.Sprintf("offset=%d", prev)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"runs":         page,
		"nextPage":     next,
		"previousPage": previous,
		"traceId":      traceID,
	})
}

// statusPayload must be called with s.mu held
func (s *Server) statusPayload(rn *run) map[string]any {
	status := rn.current()

	var start, end any
	if status != "PENDING" {
		start = startedAt.Format(time.RFC3339)
	}
	if status != "PENDING" && status != "RUNNING" {
		end = startedAt.Add(90 * time.Second).Format(time.RFC3339)
	}

	return map[string]any{
		"projectId":   rn.projectID,
		"runId":       rn.runID,
		"status":      status,
		"startTime":   start,
		"endTime":     end,
		"elapsedTime": float64(rn.polls) * 1500,
		"runUrl":      s.runURL(rn),
		"traceId":     s.traceID(),
	}
}

func (s *Server) runURL(rn *run) string {
	return fmt.Sprintf("%s/app/projects/%s/logic?runId=%s", s.URL, rn.projectID, rn.runID)
}

// traceID must be called with s.mu held
func (s *Server) traceID() string {
	s.nextID++
	return "trace-" + strconv.Itoa(s.nextID)
}

func (s *Server) writeError(w http.ResponseWriter, status int, reason string) {
	s.mu.Lock()
	traceID := s.traceID()
	s.mu.Unlock()
	s.writeJSON(w, status, map[string]any{"reason": reason, "traceId": traceID})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func intParam(query url.Values, name string, fallback int) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func key(projectID, runID string) string {
	return projectID + "/" + runID
}
