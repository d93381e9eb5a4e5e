package query

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"evalgo.org/sparqlds/internal/audit"
	"evalgo.org/sparqlds/internal/client"
	"evalgo.org/sparqlds/internal/domain"
	"evalgo.org/sparqlds/internal/logging"
	"evalgo.org/sparqlds/internal/metrics"
	"evalgo.org/sparqlds/internal/settings"
	"evalgo.org/sparqlds/internal/sparqltest"
	"evalgo.org/sparqlds/internal/validate"
	"github.com/prometheus/client_golang/prometheus"
)

const xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"

func newExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	return NewExecutor(client.NewManager(logging.Discard()), logging.Discard(), opts...)
}

func TestExecute(t *testing.T) {
	server := sparqltest.NewServer(t)
	server.SetResults([]string{"item", "count", "label"},
		map[string]map[string]string{
			"item":  sparqltest.URI("http://example.org/a"),
			"count": sparqltest.Typed("3", xsdInteger),
			"label": sparqltest.Literal("A"),
		},
		map[string]map[string]string{
			"item":  sparqltest.URI("http://example.org/b"),
			"count": sparqltest.Typed("5", xsdInteger),
		},
	)

	auditLog, err := audit.NewLogger(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e := newExecutor(t, WithAudit(auditLog))
	target := Target{Name: "test", Settings: settings.Settings{}.WithURL(server.Endpoint())}

	table, err := e.Execute(context.Background(), target, domain.DataQuery{
		RefID:    "A",
		RDFQuery: "SELECT ?item ?count ?label WHERE { ?item <http://example.org/count> ?count . OPTIONAL { ?item <http://example.org/label> ?label } }",
	}, nil)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if table.RefID != "A" {
		t.Errorf("RefID = %q, want A", table.RefID)
	}
	wantKinds := []ColumnKind{KindString, KindNumber, KindString}
	for i, col := range table.Columns {
		if col.Kind != wantKinds[i] {
			t.Errorf("column %s kind = %s, want %s", col.Name, col.Kind, wantKinds[i])
		}
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Rows[1][1] != float64(5) {
		t.Errorf("count = %v, want 5", table.Rows[1][1])
	}
	if table.Rows[1][2] != nil {
		t.Errorf("unbound label = %v, want nil", table.Rows[1][2])
	}

	entries, _ := auditLog.EntriesForDate(time.Now().Format("2006-01-02"))
	if len(entries) != 1 || entries[0].Outcome != audit.OutcomeSuccess || entries[0].Rows != 2 {
		t.Errorf("audit entries = %+v", entries)
	}
}

func TestExecuteBlocksInvalidQueries(t *testing.T) {
	server := sparqltest.NewServer(t)
	e := newExecutor(t)
	target := Target{Name: "test", Settings: settings.Settings{}.WithURL(server.Endpoint())}

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"empty", "   ", validate.MessageEmpty},
		{"parse error", "SELECT ?x WHERE", validate.MessageInvalid},
		{"structure error", "ASK { ?s ?p ?o }", validate.MessageStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), target, domain.DataQuery{RefID: "A", RDFQuery: tt.query}, nil)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Execute() error = %v, want ValidationError", err)
			}
			if !strings.HasPrefix(verr.Message, tt.message) {
				t.Errorf("message = %q, want prefix %q", verr.Message, tt.message)
			}
		})
	}

	if got := server.Queries(); len(got) != 0 {
		t.Errorf("blocked queries reached the endpoint: %v", got)
	}
}

func TestExecuteSubstitutesVariables(t *testing.T) {
	server := sparqltest.NewServer(t)
	server.SetResults([]string{"s"})
	e := newExecutor(t)
	target := Target{Settings: settings.Settings{}.WithURL(server.Endpoint())}

	scope := domain.Scope{"limit": {Value: []string{"10"}}}
	_, err := e.Execute(context.Background(), target, domain.DataQuery{
		RefID:    "A",
		RDFQuery: "SELECT ?s WHERE { ?s ?p $o } LIMIT $limit",
	}, scope)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	queries := server.Queries()
	if len(queries) != 1 || queries[0] != "SELECT ?s WHERE { ?s ?p $o } LIMIT 10" {
		t.Errorf("endpoint received %q", queries)
	}
}

func TestExecuteObservesOnlySentQueries(t *testing.T) {
	server := sparqltest.NewServer(t)
	server.SetResults([]string{"s"})
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	e := newExecutor(t, WithMetrics(m))
	ctx := context.Background()
	target := Target{Settings: settings.Settings{}.WithURL(server.Endpoint())}

	if _, err := e.Execute(ctx, target, domain.DataQuery{RefID: "A", RDFQuery: "ASK { ?s ?p ?o }"}, nil); err == nil {
		t.Fatal("ASK should be blocked")
	}
	if _, err := e.Execute(ctx, Target{}, domain.DataQuery{RefID: "B", RDFQuery: "SELECT * { ?s ?p ?o }"}, nil); err == nil {
		t.Fatal("query without endpoint should be blocked")
	}
	if _, err := e.Execute(ctx, target, domain.DataQuery{RefID: "C", RDFQuery: "SELECT * { ?s ?p ?o }"}, nil); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var observed uint64
	var blocked float64
	for _, mf := range families {
		switch mf.GetName() {
		case "sparqlds_query_duration_seconds":
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		case "sparqlds_queries_total":
			for _, metric := range mf.GetMetric() {
				for _, label := range metric.GetLabel() {
					if label.GetName() == "status" && label.GetValue() == metrics.StatusBlocked {
						blocked = metric.GetCounter().GetValue()
					}
				}
			}
		}
	}
	if observed != 1 {
		t.Errorf("query durations observed = %d, want 1", observed)
	}
	if blocked != 2 {
		t.Errorf("blocked queries counted = %v, want 2", blocked)
	}
}

func TestExecuteAllowedForms(t *testing.T) {
	server := sparqltest.NewServer(t)
	e := newExecutor(t)
	cfg := settings.Settings{}.WithURL(server.Endpoint()).WithAllowedForms("SELECT", "UPDATE")

	_, err := e.Execute(context.Background(), Target{Settings: cfg}, domain.DataQuery{
		RefID:    "A",
		RDFQuery: "INSERT DATA { <http://example.org/a> <http://example.org/b> 1 }",
	}, nil)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if len(server.Updates()) != 1 {
		t.Errorf("updates = %v, want one", server.Updates())
	}
}

func TestExecuteBasicAuth(t *testing.T) {
	server := sparqltest.NewServer(t)
	server.RequireBasicAuth("admin", "secret")
	server.SetResults([]string{"s"})
	e := newExecutor(t)

	q := domain.DataQuery{RefID: "A", RDFQuery: "SELECT ?s WHERE { ?s ?p ?o }"}

	cfg := settings.Settings{}.WithURL(server.Endpoint())
	if _, err := e.Execute(context.Background(), Target{Settings: cfg}, q, nil); err == nil {
		t.Fatal("Execute() without credentials should fail")
	}

	cfg = cfg.WithCredentials("admin", "secret")
	if _, err := e.Execute(context.Background(), Target{Settings: cfg}, q, nil); err != nil {
		t.Fatalf("Execute() with credentials failed: %v", err)
	}
}

func TestExecuteFailures(t *testing.T) {
	e := newExecutor(t)
	q := domain.DataQuery{RefID: "A", RDFQuery: "SELECT ?s WHERE { ?s ?p ?o }"}

	_, err := e.Execute(context.Background(), Target{}, q, nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "url" {
		t.Errorf("unconfigured Execute() error = %v", err)
	}

	_, err = e.Execute(context.Background(), Target{}, domain.DataQuery{RefID: "A", RDFQuery: q.RDFQuery, Format: "series"}, nil)
	if !errors.As(err, &verr) || verr.Field != "format" {
		t.Errorf("bad format Execute() error = %v", err)
	}

	cfg := settings.Settings{}.WithURL("http://127.0.0.1:1/sparql").WithTimeout(time.Second)
	_, err = e.Execute(context.Background(), Target{Settings: cfg}, q, nil)
	var oerr *domain.OperationError
	if !errors.As(err, &oerr) {
		t.Errorf("unreachable Execute() error = %v, want OperationError", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	server := sparqltest.NewServer(t)
	_, err = e.Execute(ctx, Target{Settings: settings.Settings{}.WithURL(server.Endpoint())}, q, nil)
	if err == nil {
		t.Log("request finished before the cancellation was observed")
	} else if !errors.Is(err, context.Canceled) && !errors.As(err, &oerr) {
		t.Errorf("cancelled Execute() error = %v", err)
	}
}

func TestMetricFindValues(t *testing.T) {
	server := sparqltest.NewServer(t)
	server.SetResults([]string{"label", "other"},
		map[string]map[string]string{"label": sparqltest.Literal("cat"), "other": sparqltest.Literal("x")},
		map[string]map[string]string{"other": sparqltest.Literal("y")},
		map[string]map[string]string{"label": sparqltest.Literal("dog")},
	)
	e := newExecutor(t)

	values, err := e.MetricFindValues(context.Background(),
		Target{Settings: settings.Settings{}.WithURL(server.Endpoint())},
		domain.DataQuery{RefID: "var", RDFQuery: "SELECT ?label ?other WHERE { ?s ?p ?label }"}, nil)
	if err != nil {
		t.Fatalf("MetricFindValues() failed: %v", err)
	}
	if len(values) != 2 || values[0].Text != "cat" || values[1].Text != "dog" {
		t.Errorf("MetricFindValues() = %v", values)
	}
}

func TestCheckHealth(t *testing.T) {
	server := sparqltest.NewServer(t)
	server.SetResults([]string{"s", "p", "o"},
		map[string]map[string]string{"s": sparqltest.URI("a"), "p": sparqltest.URI("b"), "o": sparqltest.Literal("c")})
	e := newExecutor(t)

	tests := []struct {
		name   string
		cfg    settings.Settings
		status HealthStatus
	}{
		{"unconfigured", settings.Settings{}, HealthUnknown},
		{"malformed", settings.Settings{}.WithURL("not a url"), HealthError},
		{"not sparql like", settings.Settings{}.WithURL(server.URL + "/data"), HealthError},
		{"ok", settings.Settings{}.WithURL(server.Endpoint()), HealthOK},
		{"repository", settings.Settings{}.WithURL(server.URL).WithRepository("demo"), HealthOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.CheckHealth(context.Background(), tt.cfg)
			if got.Status != tt.status {
				t.Errorf("CheckHealth() = %+v, want status %s", got, tt.status)
			}
		})
	}

	if q := server.Queries(); len(q) != 2 || q[0] != "SELECT * WHERE { ?s ?p ?o } LIMIT 1" {
		t.Errorf("health queries = %q", q)
	}
}
