package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/crb12546/musical-memory/cmd.version=...".
var version = "unknown"

type buildInfo struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentBuild() buildInfo {
	return buildInfo{
		App:       app,
		Version:   version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := currentBuild()
		format, _ := cmd.Flags().GetString("output")
		return render(cmd.OutOrStdout(), format, info,
			[]string{"app", "version", "go", "platform"},
			func() [][]string {
				return [][]string{{info.App, info.Version, info.GoVersion, info.Platform}}
			})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
