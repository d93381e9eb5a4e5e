package cmd

import (
	"evalgo.org/sparqlds/internal/audit"
	"evalgo.org/sparqlds/internal/logging"
	"evalgo.org/sparqlds/internal/query"
	"evalgo.org/sparqlds/pkg/plugin"
	"github.com/grafana/grafana-plugin-sdk-go/backend/datasource"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Run as a Grafana backend plugin",
	Long: `Run as a backend plugin process started by a Grafana host.

The host passes datasource settings and decrypted secure fields with every
request; no local datasource store is used. Queries are still recorded in
the audit log under the data directory unless --audit=false is given.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		logger := logging.ServiceLogger(plugin.PluginID, version, viper.GetBool("debug"))

		var opts []query.Option
		if viper.GetBool("plugin_audit") {
			auditLog, err := audit.NewLogger(viper.GetString("data_dir"))
			if err != nil {
				return err
			}
			opts = append(opts, query.WithAudit(auditLog))
		}

		if err := datasource.Manage(plugin.PluginID, plugin.Factory(logger, opts...), datasource.ManageOpts{}); err != nil {
			logger.WithError(err).Error("Plugin exited")
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pluginCmd)
	pluginCmd.Flags().Bool("audit", true, "Record queries in the audit log")
	_ = viper.BindPFlag("plugin_audit", pluginCmd.Flags().Lookup("audit"))
}
