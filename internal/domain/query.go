package domain

// FormatTable is the only result format.
const FormatTable = "table"

// DataQuery is a single dashboard query.
//
// Example:
//
//	{"refId": "A", "rdfQuery": "SELECT ?s WHERE { ?s ?p ?o } LIMIT 10", "format": "table"}
type DataQuery struct {
	RefID    string `json:"refId"`            // Identifier the response is keyed by
	RDFQuery string `json:"rdfQuery"`         // SPARQL text, may contain template variables
	Format   string `json:"format,omitempty"` // Result format, "table" when empty
	Hide     bool   `json:"hide,omitempty"`   // Hidden queries are skipped
}

// ScopedVar is the value of a dashboard variable. Multi-value variables
// carry more than one entry in Value.
type ScopedVar struct {
	Text  string   `json:"text,omitempty"`
	Value []string `json:"value"`
}

// Scope maps variable names to their values.
type Scope map[string]ScopedVar

// MetricFindValue is one option of a dashboard variable.
type MetricFindValue struct {
	Text string `json:"text"`
}

// QueryRequest is the request body of a query call.
type QueryRequest struct {
	Queries    []DataQuery `json:"queries"`
	ScopedVars Scope       `json:"scopedVars,omitempty"`
}
