package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/mabhi256/inthunter/internal/archive"
	"github.com/mabhi256/inthunter/internal/config"
	"github.com/mabhi256/inthunter/internal/detector"
	"github.com/mabhi256/inthunter/internal/engine"
	"github.com/mabhi256/inthunter/internal/finding"
	"github.com/mabhi256/inthunter/internal/report"
	"github.com/mabhi256/inthunter/utils"
)

const defaultReport = "scan-report.csv"

var (
	classesDir  string
	archiveFile string
	stagingDir  string

	outFile       string
	configFile    string
	logLevel      string
	workers       int
	detectorNames []string
	quiet         bool
)

func registerScanFlags() {
	flags := rootCmd.Flags()
	flags.StringVar(&classesDir, "classesDir", "", "Root folder containing .class files to analyse")
	flags.StringVar(&archiveFile, "archiveFile", "", "Archive to analyse (jar/war/ear/zip/tar), unpacked first")
	flags.StringVar(&stagingDir, "stagingDir", "", "Where the archive is unpacked; a temporary directory when omitted")
	rootCmd.MarkFlagDirname("classesDir")
	rootCmd.MarkFlagDirname("stagingDir")
	rootCmd.RegisterFlagCompletionFunc("archiveFile",
		utils.CompleteFilesByExtension([]string{".jar", ".war", ".ear", ".zip", ".tar", ".tgz", ".tar.gz"}))

	// shared with watch
	pflags := rootCmd.PersistentFlags()
	pflags.StringVarP(&outFile, "out", "o", defaultReport, "Report file; format follows the extension (.csv, .json, .sarif)")
	pflags.StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	pflags.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (default from config or "+config.LogLevelEnv+")")
	pflags.IntVarP(&workers, "workers", "w", 0, "Class files processed in parallel (default from config or CPU count)")
	pflags.StringSliceVar(&detectorNames, "detectors", nil, "Detectors to run, comma separated (default all: "+strings.Join(detector.Names(), ",")+")")
	pflags.BoolVarP(&quiet, "quiet", "q", false, "Do not print the summary")

	rootCmd.RegisterFlagCompletionFunc("detectors", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return detector.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.RegisterFlagCompletionFunc("out",
		utils.CompleteFilesByExtension([]string{".csv", ".json", ".sarif"}))
	rootCmd.RegisterFlagCompletionFunc("config",
		utils.CompleteFilesByExtension([]string{".yaml", ".yml"}))
}

func validateScanFlags(cmd *cobra.Command, args []string) error {
	switch {
	case classesDir == "" && archiveFile == "":
		return argumentErrorf("one of --classesDir or --archiveFile is required")
	case classesDir != "" && archiveFile != "":
		return argumentErrorf("--classesDir and --archiveFile are mutually exclusive")
	case stagingDir != "" && archiveFile == "":
		return argumentErrorf("--stagingDir only applies to --archiveFile")
	}
	return nil
}

// scanSettings is the merged view of config file and flags.
type scanSettings struct {
	cfg       *config.Config
	logger    hclog.Logger
	detectors []detector.Detector
	format    report.Format
}

// loadSettings reads --config and applies flag overrides. Every failure
// here is the user's input, so it is reported as an ArgumentError.
func loadSettings(cmd *cobra.Command) (*scanSettings, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, &ArgumentError{Err: fmt.Errorf("failed to load config: %w", err)}
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logger.Level = logLevel
	}
	if cmd.Flags().Changed("workers") {
		if workers < 1 {
			return nil, argumentErrorf("--workers must be at least 1, got %d", workers)
		}
		cfg.Scan.Workers = workers
	}
	if cmd.Flags().Changed("detectors") {
		cfg.Scan.Detectors = detectorNames
	}

	ds, err := detector.Select(cfg.Scan.Detectors)
	if err != nil {
		return nil, &ArgumentError{Err: err}
	}

	format := report.FormatFor(outFile)
	if cfg.Report.Format != "" && !cmd.Flags().Changed("out") {
		if format, err = report.ParseFormat(cfg.Report.Format); err != nil {
			return nil, &ArgumentError{Err: err}
		}
		if outFile == defaultReport {
			outFile = strings.TrimSuffix(defaultReport, ".csv") + "." + string(format)
		}
	}

	return &scanSettings{
		cfg:       cfg,
		logger:    config.NewLogger(cfg, appName),
		detectors: ds,
		format:    format,
	}, nil
}

func (s *scanSettings) engine() *engine.Engine {
	return engine.New(
		engine.WithDetectors(s.detectors...),
		engine.WithWorkers(s.cfg.Scan.Workers),
		engine.WithLogger(s.logger.Named("engine")),
	)
}

func runScan(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	root, cleanup, err := resolveInput(ctx, settings.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	records, stats, err := scanAndWrite(ctx, settings, root)
	if err != nil {
		return err
	}
	if !quiet {
		printSummary(cmd.OutOrStdout(), records, stats)
	}
	if len(records) > 0 {
		return ErrFindings
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// resolveInput returns the directory to scan, unpacking --archiveFile
// first when given. The cleanup func removes a temporary staging dir.
func resolveInput(ctx context.Context, logger hclog.Logger) (string, func(), error) {
	noop := func() {}
	if archiveFile == "" {
		return classesDir, noop, nil
	}

	staging, cleanup := stagingDir, noop
	if staging == "" {
		dir, err := os.MkdirTemp("", appName+"-")
		if err != nil {
			return "", noop, fmt.Errorf("failed to create staging directory: %w", err)
		}
		staging = dir
		cleanup = func() {
			if err := os.RemoveAll(dir); err != nil {
				logger.Warn("failed to remove staging directory", "path", dir, "error", err)
			}
		}
	}

	logger.Info("unpacking archive", "archive", archiveFile, "staging", staging)
	_, err := archive.Extract(ctx, archiveFile, staging, logger.Named("archive"))
	switch {
	case errors.Is(err, archive.ErrUnsupportedArchive):
		// scanning the empty staging dir still produces an empty report
		logger.Error("cannot unpack archive", "archive", archiveFile, "error", err)
	case err != nil:
		cleanup()
		return "", noop, fmt.Errorf("failed to unpack %s: %w", archiveFile, err)
	}
	return staging, cleanup, nil
}

func scanAndWrite(ctx context.Context, s *scanSettings, root string) ([]finding.Record, *engine.Stats, error) {
	agg := report.NewAggregator()
	stats, err := s.engine().Scan(ctx, root, agg)
	if err != nil {
		return nil, stats, fmt.Errorf("scan failed: %w", err)
	}

	records := agg.Records()
	if err := report.WriteFile(outFile, s.format, records); err != nil {
		return nil, stats, err
	}
	s.logger.Debug("report written", "path", outFile, "format", s.format, "records", len(records))
	return records, stats, nil
}

func printSummary(w io.Writer, records []finding.Record, stats *engine.Stats) {
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width <= 0 {
		width = 80
	}

	fmt.Fprintln(w, report.Summary(records, width))
	line := fmt.Sprintf("%d class files, %d parsed, %d malformed, %d detector failures in %s → %s",
		stats.Files, stats.Parsed, stats.Malformed, stats.DetectorFailures,
		utils.FormatDuration(stats.Elapsed), outFile)
	fmt.Fprintln(w, utils.MutedStyle.Render(line))
}
