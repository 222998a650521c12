package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mabhi256/inthunter/internal/watch"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch --classesDir DIR",
	Short: "Rescan a classes directory whenever it changes",
	Long: `Watch scans a classes directory, then rescans and rewrites the report each
time class files under it are added, changed or removed. Bursts of changes,
such as an incremental build, are coalesced into one rescan.

Examples:
  inthunter watch --classesDir target/classes
  inthunter watch --classesDir build/classes --out findings.json -c inthunter.yaml`,
	Args: noArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if watchDir == "" {
			return argumentErrorf("--classesDir is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		logger := settings.logger.Named("watch")

		w, err := watch.New(watchDir, settings.cfg.Watch.Debounce, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		rescan := func(ctx context.Context) error {
			records, stats, err := scanAndWrite(ctx, settings, watchDir)
			if err != nil {
				return err
			}
			if !quiet {
				printSummary(out, records, stats)
				fmt.Fprintln(out)
			}
			return nil
		}

		logger.Info("watching for changes", "root", watchDir, "debounce", settings.cfg.Watch.Debounce)
		return w.Run(commandContext(cmd), rescan)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchDir, "classesDir", "", "Root folder containing .class files to watch")
	watchCmd.MarkFlagDirname("classesDir")
}
