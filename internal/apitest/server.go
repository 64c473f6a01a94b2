// Package apitest provides an in-memory task backend served over HTTP for
// tests. It speaks the same JSON contract as the real backend.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nibzard/tasksync/internal/todo"
)

// Request is a request received by the fake backend.
type Request struct {
	Method    string
	Path      string
	Query     string
	Body      string
	RequestID string
}

// Failure makes every matching request fail with Status and Message.
type Failure struct {
	Status  int
	Message string
}

type record struct {
	ID          int
	Title       string
	Description string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// wireRecord is a task as it appears on the wire.
type wireRecord struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// naiveLayout is a timestamp without zone, as a Python isoformat() call
// on a naive datetime produces.
const naiveLayout = "2006-01-02T15:04:05.000000"

// Server is a fake task backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tasks    []*record
	nextID   int
	requests []Request
	failures map[string]Failure // method -> failure
	rawList  string
	delay    time.Duration
	minimal  bool
	now      func() time.Time
}

// New starts a fake backend and stops it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		nextID:   1,
		failures: make(map[string]Failure),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
	s.Server = httptest.NewServer(s.routes())
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", s.listTasks)
		r.Post("/", s.createTask)
		r.Get("/{id}", s.getTask)
		r.Put("/{id}", s.updateTask)
		r.Delete("/{id}", s.deleteTask)
	})
	return r
}

// Add stores a task directly and returns its id.
func (s *Server) Add(title, description string, status todo.Status) todo.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.insert(title, description)
	rec.Status = string(status)
	return todo.ID(strconv.Itoa(rec.ID))
}

// Task returns the stored task with id.
func (s *Server) Task(id todo.ID) (todo.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.find(string(id))
	if rec == nil {
		return todo.Task{}, false
	}
	return rec.task(), true
}

// Tasks returns every stored task in id order.
func (s *Server) Tasks() []todo.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]todo.Task, 0, len(s.tasks))
	for _, rec := range s.tasks {
		out = append(out, rec.task())
	}
	return out
}

// Requests returns the requests received so far, excluding /ping.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, 0, len(s.requests))
	for _, req := range s.requests {
		if req.Path != "/ping" {
			out = append(out, req)
		}
	}
	return out
}

// RequestsFor returns the received requests with the given method.
func (s *Server) RequestsFor(method string) []Request {
	var out []Request
	for _, req := range s.Requests() {
		if req.Method == method {
			out = append(out, req)
		}
	}
	return out
}

// ResetRequests forgets recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Fail makes requests with method fail until ClearFailures is called.
func (s *Server) Fail(method string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = f
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
	s.rawList = ""
	s.delay = 0
}

// SetRawList makes GET /api/tasks answer with body verbatim.
func (s *Server) SetRawList(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawList = body
}

// SetMinimal switches the server to the bare contract: create, update and
// delete answer with just {"success": true}, and timestamps carry no zone.
func (s *Server) SetMinimal(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minimal = on
}

// SetDelay delays every API response by d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      string(body),
			RequestID: r.Header.Get("X-Request-ID"),
		})
		failure, failing := s.failures[r.Method]
		delay := s.delay
		s.mu.Unlock()

		if delay > 0 && r.URL.Path != "/ping" {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing && r.URL.Path != "/ping" {
			writeJSON(w, failure.Status, map[string]any{"success": false, "error": failure.Message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rawList != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, s.rawList)
		return
	}

	// Unknown status values fall back to the full list.
	status := r.URL.Query().Get("status")
	if status != string(todo.StatusActive) && status != string(todo.StatusCompleted) {
		status = ""
	}

	tasks := make([]wireRecord, 0, len(s.tasks))
	for _, rec := range s.tasks {
		if status == "" || rec.Status == status {
			tasks = append(tasks, s.wire(rec))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tasks": tasks})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.find(chi.URLParam(r, "id"))
	if rec == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "task": s.wire(rec)})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["title"] == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Title is required"})
		return
	}
	title, _ := body["title"].(string)
	description, _ := body["description"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.insert(title, description)
	writeJSON(w, http.StatusCreated, s.taskReply(rec))
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid JSON"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.find(chi.URLParam(r, "id"))
	if rec == nil {
		http.NotFound(w, r)
		return
	}
	if v, ok := body["title"].(string); ok {
		rec.Title = v
	}
	if v, ok := body["description"].(string); ok {
		rec.Description = v
	}
	// Unknown statuses are ignored.
	if v, ok := body["status"].(string); ok && (v == string(todo.StatusActive) || v == string(todo.StatusCompleted)) {
		rec.Status = v
	}
	rec.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, s.taskReply(rec))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	for i, rec := range s.tasks {
		if strconv.Itoa(rec.ID) == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			if s.minimal {
				writeJSON(w, http.StatusOK, map[string]any{"success": true})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"message": "Task " + id + " deleted successfully",
			})
			return
		}
	}
	http.NotFound(w, r)
}

// taskReply is the body of a create or update reply.
func (s *Server) taskReply(rec *record) map[string]any {
	if s.minimal {
		return map[string]any{"success": true}
	}
	return map[string]any{"success": true, "task": s.wire(rec)}
}

func (s *Server) wire(rec *record) wireRecord {
	layout := time.RFC3339
	if s.minimal {
		layout = naiveLayout
	}
	return wireRecord{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Status:      rec.Status,
		CreatedAt:   rec.CreatedAt.Format(layout),
		UpdatedAt:   rec.UpdatedAt.Format(layout),
	}
}

func (s *Server) insert(title, description string) *record {
	now := s.now()
	rec := &record{
		ID:          s.nextID,
		Title:       title,
		Description: description,
		Status:      string(todo.StatusActive),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.tasks = append(s.tasks, rec)
	return rec
}

func (s *Server) find(id string) *record {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil
	}
	for _, rec := range s.tasks {
		if rec.ID == n {
			return rec
		}
	}
	return nil
}

func (r *record) task() todo.Task {
	created, updated := r.CreatedAt, r.UpdatedAt
	return todo.Task{
		ID:          todo.ID(strconv.Itoa(r.ID)),
		Title:       r.Title,
		Description: r.Description,
		Status:      todo.Status(r.Status),
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
