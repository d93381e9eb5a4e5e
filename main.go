// Package main provides the entry point for the SPARQL datasource service.
//
// sparqlds validates SPARQL queries before they reach an endpoint and runs
// the accepted ones against configured datasources. It runs either as an
// HTTP API server or as a Grafana backend plugin.
//
// Usage:
//
//	sparqlds service [flags]
//	sparqlds plugin
//	sparqlds validate --query 'SELECT ?s WHERE { ?s ?p ?o }'
//
// Environment Variables:
//   - SPARQLDS_SECRET_KEY: Key used to encrypt datasource passwords
//   - SPARQLDS_API_KEY: Optional API key for the /v1/api routes
//   - SPARQLDS_PORT: HTTP server port (default: 8080)
//
// @title SPARQL Datasource API
// @version 1.0
// @description Validates SPARQL queries and runs them against configured SPARQL endpoints.
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
package main

import (
	"os"

	"evalgo.org/sparqlds/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
