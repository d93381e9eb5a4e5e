package query

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"evalgo.org/sparqlds/internal/settings"
	"evalgo.org/sparqlds/internal/validate"
	knakk "github.com/knakk/sparql"
)

const healthQueries = `
# tag: health-check
SELECT * WHERE { ?s ?p ?o } LIMIT {{.Limit}}
`

var healthBank = knakk.LoadBank(bytes.NewBufferString(healthQueries))

// HealthStatus is the outcome of a health check.
type HealthStatus string

const (
	HealthOK      HealthStatus = "OK"
	HealthError   HealthStatus = "ERROR"
	HealthUnknown HealthStatus = "UNKNOWN"
)

// Health reports whether a datasource can be queried.
type Health struct {
	Status   HealthStatus       `json:"status"`
	Message  string             `json:"message"`
	Problems []validate.Problem `json:"problems,omitempty"`
}

// CheckHealth checks the endpoint of cfg. Configuration problems are
// reported without network access. The SPARQL path heuristic only applies
// to bare endpoints: repository endpoints follow the /repositories/<name>
// layout instead.
func (e *Executor) CheckHealth(ctx context.Context, cfg settings.Settings) Health {
	check := validate.CheckEndpoint(cfg.URL)
	if !check.Configured {
		return Health{Status: HealthUnknown, Message: "No SPARQL endpoint URL configured."}
	}
	if !check.WellFormed {
		return Health{
			Status:   HealthError,
			Message:  fmt.Sprintf("Endpoint URL is malformed: %s", cfg.URL),
			Problems: check.Problems(),
		}
	}
	if cfg.Repository == "" && !check.LooksLikeSparqlEndpoint {
		return Health{
			Status:   HealthError,
			Message:  "Endpoint URL does not look like a SPARQL endpoint; expected a path ending in /sparql or /query.",
			Problems: check.Problems(),
		}
	}
	if err := cfg.Validate(); err != nil {
		return Health{Status: HealthError, Message: err.Error()}
	}

	q, err := healthBank.Prepare("health-check", struct{ Limit int }{1})
	if err != nil {
		return Health{Status: HealthError, Message: fmt.Sprintf("failed to prepare health query: %v", err)}
	}

	repo, err := e.clients.Repo(cfg)
	if err != nil {
		return Health{Status: HealthError, Message: err.Error()}
	}

	res, err := send(ctx, repo, strings.TrimSpace(q), validate.Result{Kind: validate.KindValid})
	if err != nil {
		e.log.WithError(err).WithField("endpoint", cfg.Endpoint()).Warn("Health check failed")
		return Health{Status: HealthError, Message: fmt.Sprintf("Endpoint did not answer the health query: %v", err)}
	}

	e.log.WithField("endpoint", cfg.Endpoint()).Debug("Health check succeeded")
	msg := "Data source is working"
	if res != nil && len(res.Results.Bindings) == 0 {
		msg = "Data source is working, but the dataset is empty"
	}
	return Health{Status: HealthOK, Message: msg}
}
