// Package query runs dashboard queries against SPARQL endpoints.
package query

import (
	"context"
	"fmt"
	"time"

	"evalgo.org/sparqlds/internal/audit"
	"evalgo.org/sparqlds/internal/client"
	"evalgo.org/sparqlds/internal/domain"
	"evalgo.org/sparqlds/internal/metrics"
	"evalgo.org/sparqlds/internal/settings"
	"evalgo.org/sparqlds/internal/sparql"
	"evalgo.org/sparqlds/internal/template"
	"evalgo.org/sparqlds/internal/validate"
	knakk "github.com/knakk/sparql"
	"github.com/sirupsen/logrus"
)

// Executor substitutes, validates and runs queries. Only queries that
// validate are sent to the endpoint.
type Executor struct {
	clients *client.Manager
	subst   template.Substituter
	metrics *metrics.Metrics
	audit   *audit.Logger
	log     *logrus.Entry
}

// Option configures an Executor.
type Option func(*Executor)

// WithSubstituter replaces the default template interpolator.
func WithSubstituter(s template.Substituter) Option {
	return func(e *Executor) { e.subst = s }
}

// WithMetrics records validation and query metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithAudit records every executed or blocked query.
func WithAudit(a *audit.Logger) Option {
	return func(e *Executor) { e.audit = a }
}

// NewExecutor creates an executor using clients for endpoint access.
func NewExecutor(clients *client.Manager, log *logrus.Entry, opts ...Option) *Executor {
	e := &Executor{
		clients: clients,
		subst:   template.New(),
		log:     log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Target names the datasource a query runs against.
type Target struct {
	Name     string
	Settings settings.Settings
}

// Execute runs q against the datasource and returns its result table.
// Queries the validator does not accept fail with a *domain.ValidationError
// whose message is the validator message, without contacting the endpoint.
func (e *Executor) Execute(ctx context.Context, target Target, q domain.DataQuery, scope domain.Scope) (*Table, error) {
	res, err := e.run(ctx, target, q, scope)
	if err != nil {
		return nil, err
	}
	return NewTable(q.RefID, res), nil
}

// MetricFindValues runs q and returns the values of its first column as
// variable options.
func (e *Executor) MetricFindValues(ctx context.Context, target Target, q domain.DataQuery, scope domain.Scope) ([]domain.MetricFindValue, error) {
	res, err := e.run(ctx, target, q, scope)
	if err != nil {
		return nil, err
	}

	values := []domain.MetricFindValue{}
	if res == nil || len(res.Head.Vars) == 0 {
		return values, nil
	}
	first := res.Head.Vars[0]
	for _, b := range res.Results.Bindings {
		if v, ok := b[first]; ok {
			values = append(values, domain.MetricFindValue{Text: v.Value})
		}
	}
	return values, nil
}

func (e *Executor) run(ctx context.Context, target Target, q domain.DataQuery, scope domain.Scope) (*knakk.Results, error) {
	entry := audit.Entry{
		Timestamp:  time.Now(),
		Datasource: target.Name,
		RefID:      q.RefID,
		Endpoint:   target.Settings.Endpoint(),
	}

	if q.Format != "" && q.Format != domain.FormatTable {
		err := domain.NewValidationError("format", fmt.Sprintf("unsupported format: %s", q.Format))
		e.finish(entry, metrics.StatusBlocked, 0, 0, err)
		return nil, err
	}

	text, err := e.subst.Substitute(q.RDFQuery, scope)
	if err != nil {
		verr := domain.NewValidationError("rdfQuery", err.Error())
		e.finish(entry, metrics.StatusBlocked, 0, 0, verr)
		return nil, verr
	}

	result := target.Settings.Checker().Check(text)
	e.metrics.RecordValidation(result.Kind.String())
	if result.Blocks() {
		verr := domain.NewValidationError("rdfQuery", result.Message)
		e.finish(entry, metrics.StatusBlocked, 0, 0, verr)
		return nil, verr
	}

	if !target.Settings.Configured() {
		verr := domain.NewValidationError("url", "no endpoint URL configured")
		e.finish(entry, metrics.StatusBlocked, 0, 0, verr)
		return nil, verr
	}

	repo, err := e.clients.Repo(target.Settings)
	if err != nil {
		oerr := domain.NewOperationError("query", "could not create endpoint client", err)
		e.finish(entry, metrics.StatusError, 0, 0, oerr)
		return nil, oerr
	}

	start := time.Now()
	res, err := send(ctx, repo, text, result)
	elapsed := time.Since(start)
	e.metrics.ObserveQueryDuration(elapsed)
	if err != nil {
		if ctx.Err() == nil {
			err = domain.NewOperationError("query", "endpoint request failed", err)
		}
		e.finish(entry, metrics.StatusError, elapsed, 0, err)
		return nil, err
	}

	rows := 0
	if res != nil {
		rows = len(res.Results.Bindings)
	}
	e.finish(entry, metrics.StatusSuccess, elapsed, rows, nil)
	return res, nil
}

type response struct {
	res *knakk.Results
	err error
}

// send issues the request in its own goroutine so that ctx cancellation
// returns early. Updates produce no results.
func send(ctx context.Context, repo *knakk.Repo, text string, result validate.Result) (*knakk.Results, error) {
	done := make(chan response, 1)
	go func() {
		if result.Form == sparql.FormUpdate {
			done <- response{err: repo.Update(text)}
			return
		}
		res, err := repo.Query(text)
		done <- response{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.res, r.err
	}
}

func (e *Executor) finish(entry audit.Entry, status string, elapsed time.Duration, rows int, err error) {
	e.metrics.RecordQuery(status)

	entry.Outcome = status
	entry.DurationMS = elapsed.Milliseconds()
	entry.Rows = rows
	fields := logrus.Fields{
		"datasource": entry.Datasource,
		"ref_id":     entry.RefID,
		"status":     status,
		"duration":   elapsed.String(),
		"rows":       rows,
	}
	if err != nil {
		entry.ErrorMsg = err.Error()
		e.log.WithFields(fields).WithError(err).Warn("Query not completed")
	} else {
		e.log.WithFields(fields).Debug("Query completed")
	}

	if e.audit != nil {
		if aerr := e.audit.Record(entry); aerr != nil {
			e.log.WithError(aerr).Error("Failed to record audit entry")
		}
	}
}
