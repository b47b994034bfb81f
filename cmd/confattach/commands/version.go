package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"confattach/pkg/version"
)

var shortVersion bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		buildInfo := version.Get()
		if shortVersion {
			fmt.Fprintln(cmd.OutOrStdout(), buildInfo.Version)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), buildInfo.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "show only version number")
}
