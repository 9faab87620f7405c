package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/analytics"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Load every collection once and print the derived dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, config := setup()

		stages, err := progressStages(config)
		if err != nil {
			return err
		}

		s := newStore(logger, config, newClient(logger, config), nil)
		defer s.Stop()

		snap, err := load(cmd.Context(), logger, s)
		if err != nil {
			return report(logger, "loading collections", err)
		}

		dashboard := analytics.BuildDashboard(snap, time.Now(), stages)
		format, _ := cmd.Flags().GetString("output")
		if format == outputJSON {
			if err := printJSON(cmd.OutOrStdout(), dashboard); err != nil {
				return err
			}
		} else {
			printDashboard(cmd.OutOrStdout(), dashboard)
		}

		if ok, _ := cmd.Flags().GetBool("report"); ok {
			pretty, _ := json.MarshalIndent(analytics.ReportByProject(snap), "", "  ")
			logger.Info(string(pretty), zap.Int("interviews count", len(snap.Interviews)))
		}

		if ok, _ := cmd.Flags().GetBool("dump"); ok {
			filename, err := dumpToTmpFile("snapshot_*.json", snap)
			if err != nil {
				return report(logger, "dumping snapshot", err)
			}
			logger.Info("dumping snapshot to file", zap.String("filename", filename))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().Bool("report", false, "log interviews grouped by project")
	dashboardCmd.Flags().Bool("dump", false, "write the loaded snapshot to a temporary file")
}
