package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/spigell/lendmatch/internal/matching"
)

// Set with -ldflags "-X github.com/spigell/lendmatch/cmd.version=... -X ...cmd.commit=...".
var (
	version = "unknown"
	commit  = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build details",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s version: %s\n", app, version)

		verbose, _ := cmd.Flags().GetBool("verbose")
		if !verbose {
			return
		}
		if commit != "" {
			fmt.Fprintf(out, "commit: %s\n", commit)
		}
		fmt.Fprintf(out, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "scoring variants: %s, %s\n", matching.VariantAdditive, matching.VariantAveraged)
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "print build details")
	rootCmd.AddCommand(versionCmd)
}
