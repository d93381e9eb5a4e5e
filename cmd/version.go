package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	goVersion "go.hein.dev/go-version"
)

var (
	// shortened controls whether to output just the version number or full build info
	shortened = false
	// version is the application version, set at build time via -ldflags
	version = "dev"
	// commit is the git commit hash, set at build time via -ldflags
	commit = "none"
	// date is the build date, set at build time via -ldflags
	date = "unknown"
	// versionOutput specifies the output format (json or yaml)
	versionOutput = "json"

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Display version and build information",
		Long: `Display the version, git commit hash, and build date for this binary.

Examples:
  # Display only the version number
  sparqlds version

  # Display full build information as YAML
  sparqlds version --short=false --output yaml

The values are set at build time:

  go build -ldflags "-X evalgo.org/sparqlds/cmd.version=v1.0.0 \
    -X evalgo.org/sparqlds/cmd.commit=$(git rev-parse HEAD) \
    -X evalgo.org/sparqlds/cmd.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), goVersion.FuncWithOutput(shortened, version, commit, date, versionOutput))
		},
	}
)

// buildInfo is served by the API's version route.
func buildInfo() *goVersion.Info {
	return goVersion.New(version, commit, date)
}

func init() {
	versionCmd.Flags().BoolVarP(&shortened, "short", "s", true, "Print just the version number.")
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "json", "Output format. One of 'yaml' or 'json'.")
	rootCmd.AddCommand(versionCmd)
}
