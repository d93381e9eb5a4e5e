package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"evalgo.org/sparqlds/internal/audit"
	"evalgo.org/sparqlds/internal/domain"
	"evalgo.org/sparqlds/internal/logging"
	"evalgo.org/sparqlds/internal/query"
	"evalgo.org/sparqlds/internal/sparqltest"
	"evalgo.org/sparqlds/internal/validate"
	"github.com/labstack/echo/v4"
)

func doRequest(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
}

func TestValidateHandler(t *testing.T) {
	e := newTestServer(t, "")

	tests := []struct {
		name    string
		body    string
		status  int
		kind    string
		message string
	}{
		{"valid", `{"query": "SELECT ?s WHERE { ?s ?p ?o }"}`, http.StatusOK, "valid", validate.MessageValid},
		{"empty", `{"query": ""}`, http.StatusOK, "empty", validate.MessageEmpty},
		{"structure", `{"query": "ASK { ?s ?p ?o }"}`, http.StatusOK, "structure_error", validate.MessageStructure},
		{"allowed ask", `{"query": "ASK { ?s ?p ?o }", "allowedForms": ["ASK"]}`, http.StatusOK, "valid", validate.MessageValid},
		{"prefixes", `{"query": "SELECT ?x { ?x wdt:P31 ?y }", "prefixes": {"wdt": "http://www.wikidata.org/prop/direct/"}}`, http.StatusOK, "valid", validate.MessageValid},
		{"unknown form", `{"query": "SELECT * {}", "allowedForms": ["PATCH"]}`, http.StatusBadRequest, "", ""},
		{"bad body", `{"query": `, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, e, http.MethodPost, "/v1/api/validate", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp validateResponse
			decode(t, rec, &resp)
			if resp.Kind != tt.kind || resp.Message != tt.message || resp.Valid != (tt.kind == "valid") {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestValidateHandlerRejectsOversizedBody(t *testing.T) {
	e := newTestServer(t, "")

	body := `{"query": "SELECT ?s WHERE { ?s ?p ?o } # ` + strings.Repeat("x", 2<<20) + `"}`
	rec := doRequest(t, e, http.MethodPost, "/v1/api/validate", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestValidateHandlerDeepNesting(t *testing.T) {
	e := newTestServer(t, "")

	const n = 200000
	q := "SELECT ?x WHERE { FILTER(" + strings.Repeat("(", n) + "1" + strings.Repeat(")", n) + ") }"
	rec := doRequest(t, e, http.MethodPost, "/v1/api/validate", `{"query": "`+q+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp validateResponse
	decode(t, rec, &resp)
	if resp.Kind != "parse_error" || !strings.Contains(resp.Message, "nesting too deep") {
		t.Errorf("response = %+v", resp)
	}
}

func TestEndpointCheckHandler(t *testing.T) {
	e := newTestServer(t, "")

	rec := doRequest(t, e, http.MethodPost, "/v1/api/endpoint/check", `{"url": "https://example.org/data"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp endpointResponse
	decode(t, rec, &resp)
	if !resp.WellFormed || resp.LooksLikeSparqlEndpoint || len(resp.Problems) != 1 || resp.Problems[0] != validate.ProblemNotSparqlLike {
		t.Errorf("response = %+v", resp)
	}

	rec = doRequest(t, e, http.MethodPost, "/v1/api/endpoint/check", `{"url": ""}`)
	decode(t, rec, &resp)
	if resp.Configured || resp.Problems == nil || len(resp.Problems) != 0 {
		t.Errorf("empty URL response = %+v", resp)
	}
}

func TestDatasourceLifecycle(t *testing.T) {
	e := newTestServer(t, "")
	sparqlServer := sparqltest.NewServer(t)
	sparqlServer.RequireBasicAuth("reader", "s3cret")
	sparqlServer.SetResults([]string{"label"},
		map[string]map[string]string{"label": sparqltest.Literal("cat")},
		map[string]map[string]string{"label": sparqltest.Literal("dog")},
	)

	create := `{
		"name": "zoo",
		"jsonData": {"url": "` + sparqlServer.Endpoint() + `", "username": "reader"},
		"secureJsonData": {"password": "s3cret"}
	}`
	rec := doRequest(t, e, http.MethodPost, "/v1/api/datasources", create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "s3cret") {
		t.Fatal("create response leaks the password")
	}
	var ds datasourceView
	decode(t, rec, &ds)
	if ds.ID == "" || !ds.SecureJSONFields["password"] {
		t.Fatalf("created datasource = %+v", ds)
	}

	if rec := doRequest(t, e, http.MethodPost, "/v1/api/datasources", create); rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}
	if rec := doRequest(t, e, http.MethodPost, "/v1/api/datasources", `{"name": "bad", "jsonData": {"url": "not a url"}}`); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed URL create status = %d, want 400", rec.Code)
	}

	path := "/v1/api/datasources/" + ds.ID

	rec = doRequest(t, e, http.MethodPost, path+"/query", `{
		"queries": [
			{"refId": "A", "rdfQuery": "SELECT ?label WHERE { ?s ?p ?label } LIMIT $limit"},
			{"refId": "B", "rdfQuery": "CONSTRUCT WHERE { ?s ?p ?o }"},
			{"refId": "C", "rdfQuery": "SELECT ?x WHERE", "hide": true}
		],
		"scopedVars": {"limit": {"value": ["5"]}}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d (%s)", rec.Code, rec.Body.String())
	}
	var qr struct {
		Results map[string]struct {
			Table  *query.Table `json:"table"`
			Error  string       `json:"error"`
			Status int          `json:"status"`
		} `json:"results"`
	}
	decode(t, rec, &qr)
	if a := qr.Results["A"]; a.Table == nil || len(a.Table.Rows) != 2 || a.Status != http.StatusOK {
		t.Errorf("A = %+v", a)
	}
	if b := qr.Results["B"]; b.Error != validate.MessageStructure || b.Status != http.StatusBadRequest {
		t.Errorf("B = %+v", b)
	}
	if _, ok := qr.Results["C"]; ok {
		t.Error("hidden query C should be skipped")
	}
	if got := sparqlServer.Queries(); len(got) != 1 || !strings.HasSuffix(got[0], "LIMIT 5") {
		t.Errorf("endpoint received %q", got)
	}

	rec = doRequest(t, e, http.MethodPost, path+"/variables", `{"query": "SELECT ?label WHERE { ?s ?p ?label }"}`)
	var values []domain.MetricFindValue
	decode(t, rec, &values)
	if len(values) != 2 || values[0].Text != "cat" {
		t.Errorf("variables = %v", values)
	}

	rec = doRequest(t, e, http.MethodPost, path+"/variables", `{"query": ""}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), validate.MessageEmpty) {
		t.Errorf("empty variable query = %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, e, http.MethodGet, path+"/health", "")
	var health query.Health
	decode(t, rec, &health)
	if health.Status != query.HealthOK {
		t.Errorf("health = %+v", health)
	}

	// Keep the password when none is sent
	rec = doRequest(t, e, http.MethodPut, path, `{"jsonData": {"url": "`+sparqlServer.Endpoint()+`", "username": "reader", "timeoutSeconds": 5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d (%s)", rec.Code, rec.Body.String())
	}
	decode(t, rec, &ds)
	if !ds.SecureJSONFields["password"] || ds.JSONData.TimeoutSeconds != 5 {
		t.Errorf("updated datasource = %+v", ds)
	}

	rec = doRequest(t, e, http.MethodGet, "/v1/api/audit?limit=10", "")
	var entries []audit.Entry
	decode(t, rec, &entries)
	if len(entries) < 3 {
		t.Errorf("audit entries = %d, want at least 3", len(entries))
	}

	rec = doRequest(t, e, http.MethodGet, "/v1/api/audit?date="+time.Now().Format("2006-01-02"), "")
	if rec.Code != http.StatusOK {
		t.Errorf("audit by date status = %d", rec.Code)
	}
	if rec := doRequest(t, e, http.MethodGet, "/v1/api/audit?date=yesterday", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad audit date status = %d, want 400", rec.Code)
	}

	if rec := doRequest(t, e, http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := doRequest(t, e, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := doRequest(t, e, http.MethodPost, path+"/query", `{"queries": []}`); rec.Code != http.StatusNotFound {
		t.Errorf("query after delete status = %d, want 404", rec.Code)
	}
}

func TestDatasourceChangesDropCachedClients(t *testing.T) {
	h, err := newAPI(serverConfig{SecretKey: "test-secret-key-12345", DataDir: t.TempDir()}, logging.Discard())
	if err != nil {
		t.Fatalf("newAPI() failed: %v", err)
	}
	e := h.server("")
	sparqlServer := sparqltest.NewServer(t)
	sparqlServer.SetResults([]string{"s"})

	rec := doRequest(t, e, http.MethodPost, "/v1/api/datasources",
		`{"name": "cache", "jsonData": {"url": "`+sparqlServer.Endpoint()+`"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", rec.Code, rec.Body.String())
	}
	var view datasourceView
	decode(t, rec, &view)

	runQuery := func() {
		t.Helper()
		rec := doRequest(t, e, http.MethodPost, "/v1/api/datasources/"+view.ID+"/query",
			`{"queries": [{"refId": "A", "rdfQuery": "SELECT ?s WHERE { ?s ?p ?o }"}]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("query status = %d (%s)", rec.Code, rec.Body.String())
		}
	}

	runQuery()
	if h.clients.Size() != 1 {
		t.Fatalf("cached clients = %d, want 1", h.clients.Size())
	}

	rec = doRequest(t, e, http.MethodPut, "/v1/api/datasources/"+view.ID,
		`{"name": "cache", "jsonData": {"url": "`+sparqlServer.Endpoint()+`", "timeoutSeconds": 5}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d (%s)", rec.Code, rec.Body.String())
	}
	if h.clients.Size() != 0 {
		t.Errorf("cached clients after update = %d, want 0", h.clients.Size())
	}

	runQuery()
	rec = doRequest(t, e, http.MethodDelete, "/v1/api/datasources/"+view.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if h.clients.Size() != 0 {
		t.Errorf("cached clients after delete = %d, want 0", h.clients.Size())
	}
}

func TestQueryHandlerEndpointFailure(t *testing.T) {
	e := newTestServer(t, "")

	rec := doRequest(t, e, http.MethodPost, "/v1/api/datasources", `{"name": "down", "jsonData": {"url": "http://127.0.0.1:1/sparql", "timeoutSeconds": 1}}`)
	var ds datasourceView
	decode(t, rec, &ds)

	rec = doRequest(t, e, http.MethodPost, "/v1/api/datasources/"+ds.ID+"/variables", `{"query": "SELECT ?s WHERE { ?s ?p ?o }"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("unreachable endpoint status = %d, want 502 (%s)", rec.Code, rec.Body.String())
	}
}
