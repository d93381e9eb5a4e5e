package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"evalgo.org/sparqlds/internal/settings"
	"evalgo.org/sparqlds/internal/validate"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a SPARQL query and an endpoint URL",
	Long: `Validate a SPARQL query and, optionally, an endpoint URL without
contacting the endpoint.

The query is read from --query, from --file, or from standard input.
The exit status is non-zero when the query would be blocked.

Examples:
  sparqlds validate --query 'SELECT ?s WHERE { ?s ?p ?o }'
  sparqlds validate --file dashboard.rq --endpoint https://dbpedia.org/sparql -o yaml
  echo 'ASK {}' | sparqlds validate --allow ASK`,
	RunE: runValidate,
}

var (
	validateQueryText  string
	validateFile       string
	validateEndpoint   string
	validateAllowed    []string
	validatePrefixes   map[string]string
	validateOutputType string
)

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateQueryText, "query", "q", "", "SPARQL query text")
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "file containing the query")
	validateCmd.Flags().StringVarP(&validateEndpoint, "endpoint", "e", "", "endpoint URL to check")
	validateCmd.Flags().StringSliceVar(&validateAllowed, "allow", nil, "accepted query forms (default SELECT)")
	validateCmd.Flags().StringToStringVar(&validatePrefixes, "prefix", nil, "predeclared prefixes, e.g. --prefix wd=http://www.wikidata.org/entity/")
	validateCmd.Flags().StringVarP(&validateOutputType, "output", "o", "json", "Output format. One of 'yaml' or 'json'.")
}

// validateReport is the output of the validate command.
type validateReport struct {
	Query    validateResponse  `json:"query" yaml:"query"`
	Endpoint *endpointResponse `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	text, err := readQuery(cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg := settings.Settings{}.WithPrefixes(validatePrefixes).WithAllowedForms(validateAllowed...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	result := cfg.Checker().Check(text)
	report := validateReport{Query: newValidateResponse(result)}
	if validateEndpoint != "" {
		check := newEndpointResponse(validate.CheckEndpoint(validateEndpoint))
		report.Endpoint = &check
	}

	if err := writeReport(cmd.OutOrStdout(), report, validateOutputType); err != nil {
		return err
	}
	if result.Blocks() {
		return fmt.Errorf("%s", result.Message)
	}
	return nil
}

func readQuery(stdin io.Reader) (string, error) {
	switch {
	case validateQueryText != "":
		return validateQueryText, nil
	case validateFile != "":
		data, err := os.ReadFile(validateFile)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read query from stdin: %w", err)
	}
	return string(data), nil
}

func writeReport(w io.Writer, report validateReport, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return fmt.Errorf("unknown output format %q", format)
}
