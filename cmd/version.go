package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mabhi256/inthunter/internal/detector"
)

// set with -ldflags "-X github.com/mabhi256/inthunter/cmd.version=..."
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the built-in detectors",
	Args:  noArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s version %s (%s %s/%s)\n", appName, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "detectors: %s\n", strings.Join(detector.Names(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
