package cmd

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"evalgo.org/sparqlds/internal/domain"
	"evalgo.org/sparqlds/internal/query"
	"evalgo.org/sparqlds/internal/settings"
	"evalgo.org/sparqlds/internal/sparql"
	"evalgo.org/sparqlds/internal/store"
	"evalgo.org/sparqlds/internal/validate"
	"github.com/labstack/echo/v4"
)

func (h *api) register(g *echo.Group) {
	g.POST("/validate", h.validateQuery)
	g.POST("/endpoint/check", h.checkEndpoint)

	g.GET("/datasources", h.listDatasources)
	g.POST("/datasources", h.createDatasource)
	g.GET("/datasources/:id", h.getDatasource)
	g.PUT("/datasources/:id", h.updateDatasource)
	g.DELETE("/datasources/:id", h.deleteDatasource)
	g.POST("/datasources/:id/query", h.queryDatasource)
	g.POST("/datasources/:id/variables", h.datasourceVariables)
	g.GET("/datasources/:id/health", h.datasourceHealth)

	g.GET("/audit", h.auditEntries)
}

// errorHandler turns domain errors into HTTP errors before the default
// handler writes them.
func (h *api) errorHandler(next echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			verr *domain.ValidationError
			nerr *domain.NotFoundError
			cerr *domain.ConflictError
			oerr *domain.OperationError
		)
		switch {
		case errors.As(err, &verr):
			err = echo.NewHTTPError(http.StatusBadRequest, verr.Message).SetInternal(err)
		case errors.As(err, &nerr):
			err = echo.NewHTTPError(http.StatusNotFound, nerr.Error())
		case errors.As(err, &cerr):
			err = echo.NewHTTPError(http.StatusConflict, cerr.Error())
		case errors.Is(err, context.DeadlineExceeded):
			err = echo.NewHTTPError(http.StatusGatewayTimeout, "endpoint request timed out")
		case errors.As(err, &oerr):
			h.log.WithError(err).WithField("operation", oerr.Operation).Warn("Operation failed")
			err = echo.NewHTTPError(http.StatusBadGateway, oerr.Error())
		}
		next(err, c)
	}
}

type validateRequest struct {
	Query        string            `json:"query"`
	Prefixes     map[string]string `json:"prefixes,omitempty"`
	AllowedForms []string          `json:"allowedForms,omitempty"`
}

type validateResponse struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
	Valid   bool   `json:"valid" yaml:"valid"`
	Form    string `json:"form,omitempty" yaml:"form,omitempty"`
}

func newValidateResponse(r validate.Result) validateResponse {
	resp := validateResponse{Kind: r.Kind.String(), Message: r.Message, Valid: r.Valid()}
	if r.Form != sparql.FormUnknown {
		resp.Form = r.Form.String()
	}
	return resp
}

func (h *api) validateQuery(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	cfg := settings.Settings{}.WithPrefixes(req.Prefixes).WithAllowedForms(req.AllowedForms...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	result := cfg.Checker().Check(req.Query)
	h.metrics.RecordValidation(result.Kind.String())
	return c.JSON(http.StatusOK, newValidateResponse(result))
}

type endpointRequest struct {
	URL string `json:"url"`
}

type endpointResponse struct {
	Configured              bool               `json:"configured" yaml:"configured"`
	WellFormed              bool               `json:"wellFormed" yaml:"wellFormed"`
	LooksLikeSparqlEndpoint bool               `json:"looksLikeSparqlEndpoint" yaml:"looksLikeSparqlEndpoint"`
	Problems                []validate.Problem `json:"problems" yaml:"problems"`
}

func newEndpointResponse(check validate.EndpointCheck) endpointResponse {
	problems := check.Problems()
	if problems == nil {
		problems = []validate.Problem{}
	}
	return endpointResponse{
		Configured:              check.Configured,
		WellFormed:              check.WellFormed,
		LooksLikeSparqlEndpoint: check.LooksLikeSparqlEndpoint,
		Problems:                problems,
	}
}

func (h *api) checkEndpoint(c echo.Context) error {
	var req endpointRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.JSON(http.StatusOK, newEndpointResponse(validate.CheckEndpoint(req.URL)))
}

// datasourceRequest is the body of create and update calls. Secure fields
// are write-only.
type datasourceRequest struct {
	Name           string            `json:"name"`
	JSONData       settings.Settings `json:"jsonData"`
	SecureJSONData map[string]string `json:"secureJsonData,omitempty"`
	ResetPassword  bool              `json:"resetPassword,omitempty"`
}

func (r datasourceRequest) config() settings.Settings {
	return r.JSONData.WithPassword(r.SecureJSONData[settings.SecurePassword])
}

// datasourceView never carries secure values, only which ones are set.
type datasourceView struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	JSONData         settings.Settings `json:"jsonData"`
	SecureJSONFields map[string]bool   `json:"secureJsonFields"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func newDatasourceView(ds *store.Datasource) datasourceView {
	return datasourceView{
		ID:               ds.ID,
		Name:             ds.Name,
		JSONData:         ds.JSONData,
		SecureJSONFields: ds.SecureJSONFields(),
		CreatedAt:        ds.CreatedAt,
		UpdatedAt:        ds.UpdatedAt,
	}
}

func (h *api) listDatasources(c echo.Context) error {
	list, err := h.store.List()
	if err != nil {
		return err
	}
	views := make([]datasourceView, 0, len(list))
	for i := range list {
		views = append(views, newDatasourceView(&list[i]))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *api) createDatasource(c echo.Context) error {
	var req datasourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	ds, err := h.store.Create(req.Name, req.config())
	if err != nil {
		return err
	}
	h.log.WithField("datasource", ds.Name).WithField("id", ds.ID).Info("Datasource created")
	return c.JSON(http.StatusCreated, newDatasourceView(ds))
}

func (h *api) getDatasource(c echo.Context) error {
	ds, err := h.store.Get(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newDatasourceView(ds))
}

func (h *api) updateDatasource(c echo.Context) error {
	var req datasourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	h.forgetClient(c.Param("id"))
	ds, err := h.store.Update(c.Param("id"), req.Name, req.config(), req.ResetPassword)
	if err != nil {
		return err
	}
	h.log.WithField("datasource", ds.Name).WithField("id", ds.ID).Info("Datasource updated")
	return c.JSON(http.StatusOK, newDatasourceView(ds))
}

func (h *api) deleteDatasource(c echo.Context) error {
	h.forgetClient(c.Param("id"))
	if err := h.store.Delete(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// forgetClient drops the cached endpoint client of datasource id before its
// settings change.
func (h *api) forgetClient(id string) {
	if cfg, err := h.store.Settings(id); err == nil {
		h.clients.Forget(cfg)
	}
}

func (h *api) target(id string) (query.Target, error) {
	ds, err := h.store.Get(id)
	if err != nil {
		return query.Target{}, err
	}
	cfg, err := h.store.Settings(id)
	if err != nil {
		return query.Target{}, err
	}
	return query.Target{Name: ds.Name, Settings: cfg}, nil
}

// queryResult is the response for one refId: a table or an error.
type queryResult struct {
	Table  *query.Table `json:"table,omitempty"`
	Error  string       `json:"error,omitempty"`
	Status int          `json:"status"`
}

type queryResponse struct {
	Results map[string]queryResult `json:"results"`
}

func (h *api) queryDatasource(c echo.Context) error {
	var req domain.QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	target, err := h.target(c.Param("id"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	resp := queryResponse{Results: make(map[string]queryResult, len(req.Queries))}
	for _, q := range req.Queries {
		if q.Hide {
			continue
		}
		table, err := h.executor.Execute(ctx, target, q, req.ScopedVars)
		if err != nil {
			resp.Results[q.RefID] = queryResult{Error: errorMessage(err), Status: errorStatus(err)}
			continue
		}
		resp.Results[q.RefID] = queryResult{Table: table, Status: http.StatusOK}
	}
	return c.JSON(http.StatusOK, resp)
}

type variablesRequest struct {
	Query      string       `json:"query"`
	ScopedVars domain.Scope `json:"scopedVars,omitempty"`
}

func (h *api) datasourceVariables(c echo.Context) error {
	var req variablesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	target, err := h.target(c.Param("id"))
	if err != nil {
		return err
	}

	values, err := h.executor.MetricFindValues(c.Request().Context(), target,
		domain.DataQuery{RefID: "metricFindQuery", RDFQuery: req.Query}, req.ScopedVars)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, values)
}

func (h *api) datasourceHealth(c echo.Context) error {
	target, err := h.target(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.executor.CheckHealth(c.Request().Context(), target.Settings))
}

// auditEntries returns the entries of ?date=YYYY-MM-DD, or the most recent
// ?limit entries of the last ?days days.
func (h *api) auditEntries(c echo.Context) error {
	if date := c.QueryParam("date"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		entries, err := h.audit.EntriesForDate(date)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, entries)
	}

	limit, err := intParam(c, "limit", 100)
	if err != nil {
		return err
	}
	days, err := intParam(c, "days", 7)
	if err != nil {
		return err
	}
	entries, err := h.audit.Recent(days, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative integer")
	}
	return n, nil
}

func errorMessage(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}

func errorStatus(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
