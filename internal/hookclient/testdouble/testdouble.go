// Package testdouble is an in-process stand-in for the external hook
// service, used by orchestrator tests so the full submit/pre_delegation/
// post_delegation/ticket_extraction pipeline is exercisable without a real
// HTTP service running. Routing follows the teacher's own httptest+gorilla
// mux pattern (internal/provider/ollama/ollama_test.go).
package testdouble

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

// StageHandler computes the HookResult list for one stage invocation.
type StageHandler func(context map[string]interface{}) []map[string]interface{}

// Server is a configurable fake hook service.
type Server struct {
	mu       sync.Mutex
	handlers map[string]StageHandler
	calls    map[string]int
	httpSrv  *httptest.Server
}

// New starts a fake hook service listening on an ephemeral local port.
func New() *Server {
	s := &Server{
		handlers: map[string]StageHandler{},
		calls:    map[string]int{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/hooks/list", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/hooks/execute", s.handleExecute).Methods(http.MethodPost)

	s.httpSrv = httptest.NewServer(r)
	return s
}

// URL is the base URL to configure a hookclient.Client with.
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// Close shuts down the fake service.
func (s *Server) Close() {
	s.httpSrv.Close()
}

// OnStage registers a handler for one hook_type; it replaces any previous
// registration for that stage.
func (s *Server) OnStage(stage string, handler StageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[stage] = handler
}

// CallCount returns how many times /hooks/execute was hit for stage.
func (s *Server) CallCount(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stage]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "hook_count": len(s.handlers)})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hooks := map[string][]map[string]string{}
	for stage := range s.handlers {
		hooks[stage] = []map[string]string{{"name": stage + "-hook"}}
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"hooks": hooks})
}

type executeRequest struct {
	HookType string                 `json:"hook_type"`
	Context  map[string]interface{} `json:"context"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.HookType]++
	handler := s.handlers[req.HookType]
	s.mu.Unlock()

	if handler == nil {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "results": []interface{}{}})
		return
	}

	results := handler(req.Context)
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "results": results})
}
