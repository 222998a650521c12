package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mabhi256/inthunter/internal/report"
	"github.com/mabhi256/inthunter/internal/tui"
	"github.com/mabhi256/inthunter/utils"
)

var viewCmd = &cobra.Command{
	Use:   "view [report-file]",
	Short: "Browse a CSV or JSON report interactively",
	Long: `View opens a report written by a scan in a terminal UI. Tabs filter by
finding type, enter shows the details of the selected finding.

Examples:
  inthunter view                  # opens scan-report.csv
  inthunter view findings.json`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".csv", ".json"}),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultReport
		if len(args) > 0 {
			path = args[0]
		}

		records, err := report.ReadFile(path)
		if err != nil {
			return err
		}

		if err := tui.StartTUI(records, path); err != nil {
			return fmt.Errorf("unable to start TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
