package plugin

import (
	"context"
	"encoding/json"
	"testing"

	"evalgo.org/sparqlds/internal/logging"
	"evalgo.org/sparqlds/internal/sparqltest"
	"evalgo.org/sparqlds/internal/validate"
	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

func newTestDatasource(t *testing.T, jsonData string, secure map[string]string) *Datasource {
	t.Helper()
	ds, err := NewDatasource(context.Background(), backend.DataSourceInstanceSettings{
		Name:                    "test",
		JSONData:                json.RawMessage(jsonData),
		DecryptedSecureJSONData: secure,
	}, logging.Discard())
	if err != nil {
		t.Fatalf("NewDatasource() failed: %v", err)
	}
	return ds
}

func TestQueryData(t *testing.T) {
	server := sparqltest.NewServer(t)
	server.RequireBasicAuth("reader", "s3cret")
	server.SetResults([]string{"item", "count"},
		map[string]map[string]string{
			"item":  sparqltest.URI("http://example.org/a"),
			"count": sparqltest.Typed("7", "http://www.w3.org/2001/XMLSchema#integer"),
		},
	)

	ds := newTestDatasource(t, `{"url": "`+server.Endpoint()+`", "username": "reader"}`, map[string]string{"password": "s3cret"})
	defer ds.Dispose()

	resp, err := ds.QueryData(context.Background(), &backend.QueryDataRequest{
		Queries: []backend.DataQuery{
			{RefID: "A", JSON: json.RawMessage(`{"rdfQuery": "SELECT ?item ?count WHERE { ?item ?p ?count }"}`)},
			{RefID: "B", JSON: json.RawMessage(`{"rdfQuery": ""}`)},
			{RefID: "C", JSON: json.RawMessage(`{"rdfQuery": "ASK { ?s ?p ?o }"}`)},
			{RefID: "D", JSON: json.RawMessage(`not json`)},
		},
	})
	if err != nil {
		t.Fatalf("QueryData() failed: %v", err)
	}

	a := resp.Responses["A"]
	if a.Error != nil {
		t.Fatalf("A failed: %v", a.Error)
	}
	if len(a.Frames) != 1 {
		t.Fatalf("A frames = %d, want 1", len(a.Frames))
	}
	frame := a.Frames[0]
	if len(frame.Fields) != 2 || frame.Rows() != 1 {
		t.Fatalf("A frame has %d fields and %d rows", len(frame.Fields), frame.Rows())
	}
	if v, ok := frame.Fields[1].ConcreteAt(0); !ok || v.(float64) != 7 {
		t.Errorf("count = %v", v)
	}

	if b := resp.Responses["B"]; b.Error == nil || b.Error.Error() != validate.MessageEmpty {
		t.Errorf("B error = %v, want %q", b.Error, validate.MessageEmpty)
	}
	if c := resp.Responses["C"]; c.Error == nil || c.Error.Error() != validate.MessageStructure {
		t.Errorf("C error = %v, want %q", c.Error, validate.MessageStructure)
	}
	if d := resp.Responses["D"]; d.Error == nil || d.Status != backend.StatusBadRequest {
		t.Errorf("D = %+v, want a bad request", d)
	}

	if got := len(server.Queries()); got != 1 {
		t.Errorf("endpoint received %d queries, want 1", got)
	}
}

func TestNewDatasourceFallsBackToInstanceURL(t *testing.T) {
	ds, err := NewDatasource(context.Background(), backend.DataSourceInstanceSettings{
		URL: "https://dbpedia.org/sparql",
	}, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if ds.settings.URL != "https://dbpedia.org/sparql" {
		t.Errorf("URL = %q", ds.settings.URL)
	}

	if _, err := NewDatasource(context.Background(), backend.DataSourceInstanceSettings{
		JSONData: json.RawMessage(`{"url": 1}`),
	}, logging.Discard()); err == nil {
		t.Error("NewDatasource() should reject malformed jsonData")
	}
}

func TestCheckHealth(t *testing.T) {
	server := sparqltest.NewServer(t)

	tests := []struct {
		name     string
		jsonData string
		status   backend.HealthStatus
	}{
		{"ok", `{"url": "` + server.Endpoint() + `"}`, backend.HealthStatusOk},
		{"unconfigured", `{}`, backend.HealthStatusUnknown},
		{"not sparql like", `{"url": "https://example.org/data"}`, backend.HealthStatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newTestDatasource(t, tt.jsonData, nil)
			res, err := ds.CheckHealth(context.Background(), &backend.CheckHealthRequest{})
			if err != nil {
				t.Fatalf("CheckHealth() failed: %v", err)
			}
			if res.Status != tt.status {
				t.Errorf("CheckHealth() = %v %q, want %v", res.Status, res.Message, tt.status)
			}
		})
	}
}
