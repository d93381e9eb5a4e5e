package cmd

// This file contains Swagger/OpenAPI documentation annotations for all API endpoints.
// The actual handler implementations are in api_handlers.go and service.go.
// Regenerate docs/ with: swag init -g main.go

// Health endpoint
// @Summary Health check
// @Description Returns the health status of the service
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "status: healthy"
// @Router /health [get]
func swaggerHealthCheck() {}

// Validate handler
// @Summary Validate a SPARQL query
// @Description Checks a query without executing it. Only SELECT queries are accepted unless allowedForms says otherwise.
// @Description The message is one of the fixed validator messages; parse errors append the parser diagnostic.
// @Tags Validation
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body validateRequest true "Query to validate"
// @Success 200 {object} validateResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Missing or invalid API key"
// @Router /v1/api/validate [post]
func swaggerValidate() {}

// Endpoint check handler
// @Summary Check an endpoint URL
// @Description Reports whether the URL is well formed and whether its path ends in /sparql or /query
// @Tags Validation
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body endpointRequest true "Endpoint URL"
// @Success 200 {object} endpointResponse
// @Router /v1/api/endpoint/check [post]
func swaggerEndpointCheck() {}

// @Summary List datasources
// @Tags Datasources
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} datasourceView
// @Router /v1/api/datasources [get]
func swaggerListDatasources() {}

// @Summary Create a datasource
// @Description Secure fields are encrypted at rest and never returned; secureJsonFields reports which are set.
// @Tags Datasources
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param datasource body datasourceRequest true "Datasource"
// @Success 201 {object} datasourceView
// @Failure 400 {object} map[string]string "Invalid settings"
// @Failure 409 {object} map[string]string "Name already taken"
// @Router /v1/api/datasources [post]
func swaggerCreateDatasource() {}

// @Summary Get a datasource
// @Tags Datasources
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Datasource ID"
// @Success 200 {object} datasourceView
// @Failure 404 {object} map[string]string "Not found"
// @Router /v1/api/datasources/{id} [get]
func swaggerGetDatasource() {}

// @Summary Update a datasource
// @Description An omitted password keeps the stored one unless resetPassword is set.
// @Tags Datasources
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Datasource ID"
// @Param datasource body datasourceRequest true "Datasource"
// @Success 200 {object} datasourceView
// @Failure 400 {object} map[string]string "Invalid settings"
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Name already taken"
// @Router /v1/api/datasources/{id} [put]
func swaggerUpdateDatasource() {}

// @Summary Delete a datasource
// @Tags Datasources
// @Security ApiKeyAuth
// @Param id path string true "Datasource ID"
// @Success 204
// @Failure 404 {object} map[string]string "Not found"
// @Router /v1/api/datasources/{id} [delete]
func swaggerDeleteDatasource() {}

// @Summary Run queries
// @Description Each query is substituted, validated and, when valid, executed. Results are keyed by refId;
// @Description blocked or failed queries carry an error and a status instead of a table.
// @Tags Queries
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Datasource ID"
// @Param request body domain.QueryRequest true "Queries"
// @Success 200 {object} queryResponse
// @Failure 404 {object} map[string]string "Not found"
// @Router /v1/api/datasources/{id}/query [post]
func swaggerQueryDatasource() {}

// @Summary Variable values
// @Description Runs the query and returns the values of its first column.
// @Tags Queries
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Datasource ID"
// @Param request body variablesRequest true "Variable query"
// @Success 200 {array} domain.MetricFindValue
// @Failure 400 {object} map[string]string "Query blocked"
// @Failure 502 {object} map[string]string "Endpoint failure"
// @Router /v1/api/datasources/{id}/variables [post]
func swaggerDatasourceVariables() {}

// @Summary Datasource health
// @Tags Datasources
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Datasource ID"
// @Success 200 {object} query.Health
// @Failure 404 {object} map[string]string "Not found"
// @Router /v1/api/datasources/{id}/health [get]
func swaggerDatasourceHealth() {}

// @Summary Query audit log
// @Description Entries of one day, or the most recent entries of the last days.
// @Tags Audit
// @Produce json
// @Security ApiKeyAuth
// @Param date query string false "Day in YYYY-MM-DD format"
// @Param limit query int false "Maximum number of entries" default(100)
// @Param days query int false "Days to look back" default(7)
// @Success 200 {array} audit.Entry
// @Failure 400 {object} map[string]string "Invalid parameter"
// @Router /v1/api/audit [get]
func swaggerAudit() {}
