// Package cmd provides the command-line interface for the SPARQL datasource
// service.
//
// This package implements a cobra-based CLI with commands for:
//   - service: Start the datasource HTTP API server
//   - plugin: Run as a backend plugin under a Grafana host
//   - validate: Check a query and an endpoint URL from the shell
//   - version: Display version and build information
//
// The CLI supports configuration via:
//   - Command-line flags
//   - Configuration files (YAML format)
//   - Environment variables prefixed with SPARQLDS_
//
// Configuration File Locations:
//   - Specified via --config flag
//   - $HOME/.sparqlds.yaml (default)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile holds the path to the configuration file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "sparqlds",
		Short: "SPARQL datasource - query validation and execution against SPARQL endpoints",
		Long: `sparqlds connects dashboards to SPARQL endpoints.

It provides:
  - Validation of SPARQL queries before they are executed
  - Endpoint URL checks for datasource settings
  - Datasource management with encrypted credentials
  - Query execution with results returned as tables
  - A Grafana backend plugin mode

Use "sparqlds service" to start the API server.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command and returns any error that occurs.
// This is the main entry point for the CLI application.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sparqlds.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("data-dir", "./data", "Directory for datasources and audit logs")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	viper.SetDefault("port", 8080)
	viper.SetDefault("audit_retention_days", 30)
}

// initConfig reads in config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sparqlds")
	}

	// SPARQLDS_API_KEY, SPARQLDS_DATA_DIR, ...
	viper.SetEnvPrefix("sparqlds")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
