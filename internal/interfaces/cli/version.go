package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo bundles the link-time build metadata.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// NewVersionCmd creates the version command. It overrides the root's
// PersistentPreRunE so it runs without any configuration.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := BuildInfo{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			}

			w := cmd.OutOrStdout()
			if outputFormat == OutputJSON {
				return printJSON(w, info)
			}
			fmt.Fprintf(w, "fcmreg %s\n", info.Version)
			fmt.Fprintf(w, "  commit: %s\n", info.GitCommit)
			fmt.Fprintf(w, "  built:  %s\n", info.BuildDate)
			fmt.Fprintf(w, "  go:     %s\n", info.GoVersion)
			return nil
		},
	}
}
