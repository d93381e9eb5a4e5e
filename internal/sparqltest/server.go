// Package sparqltest provides a mock SPARQL protocol endpoint for tests.
package sparqltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Path is the endpoint path served by the mock.
const Path = "/sparql"

// Server is a mock SPARQL endpoint answering every query with the same
// result document.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	vars     []string
	bindings []map[string]map[string]string
	queries  []string
	updates  []string
	user     string
	password string
}

// NewServer starts a mock endpoint that answers with no rows. It is closed
// when the test finishes.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{vars: []string{}, bindings: []map[string]map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handle)
	mux.HandleFunc("/repositories/", s.handle)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the URL of the SPARQL path.
func (s *Server) Endpoint() string {
	return s.URL + Path
}

// RequireBasicAuth makes the server reject requests without these credentials.
func (s *Server) RequireBasicAuth(user, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user, s.password = user, password
}

// SetResults replaces the result document. Each row maps a variable to its
// binding, e.g. {"type": "literal", "value": "1", "datatype": "..."}.
func (s *Server) SetResults(vars []string, rows ...map[string]map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars = vars
	s.bindings = rows
}

// Queries returns the query texts received so far.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Updates returns the update texts received so far.
func (s *Server) Updates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.updates...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != "" {
		user, password, ok := r.BasicAuth()
		if !ok || user != s.user || password != s.password {
			w.Header().Set("WWW-Authenticate", `Basic realm="sparql"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	if update := r.FormValue("update"); update != "" {
		s.updates = append(s.updates, update)
		w.WriteHeader(http.StatusOK)
		return
	}

	query := r.FormValue("query")
	if query == "" {
		http.Error(w, "missing query", http.StatusBadRequest)
		return
	}
	s.queries = append(s.queries, query)

	w.Header().Set("Content-Type", "application/sparql-results+json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"head": map[string]interface{}{"vars": s.vars},
		"results": map[string]interface{}{
			"bindings": s.bindings,
		},
	})
}

// Literal returns a plain literal binding.
func Literal(value string) map[string]string {
	return map[string]string{"type": "literal", "value": value}
}

// Typed returns a typed literal binding.
func Typed(value, datatype string) map[string]string {
	return map[string]string{"type": "literal", "value": value, "datatype": datatype}
}

// URI returns an IRI binding.
func URI(value string) map[string]string {
	return map[string]string{"type": "uri", "value": value}
}
