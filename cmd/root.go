package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const appName = "inthunter"

// Process exit codes.
const (
	ExitClean    = 0 // scan completed without findings
	ExitFindings = 1
	ExitUsage    = 2
	ExitFatal    = 3
)

// ErrFindings is returned by a scan that completed and found something.
var ErrFindings = errors.New("findings present")

// ArgumentError is a problem with the command line. It exits with
// ExitUsage after printing the usage of the failing command.
type ArgumentError struct {
	Err error
}

func (e *ArgumentError) Error() string { return e.Err.Error() }
func (e *ArgumentError) Unwrap() error { return e.Err }

func argumentErrorf(format string, args ...any) error {
	return &ArgumentError{Err: fmt.Errorf(format, args...)}
}

var rootCmd = &cobra.Command{
	Use:   appName + " (--classesDir DIR | --archiveFile FILE) [flags]",
	Short: "Find int-typed identifiers in compiled Java code",
	Long: `inthunter scans compiled Java classes for identifiers that are stored as 32-bit
ints but feed database keys: int/Integer fields on JPA entities, boxed ints
passed to JdbcTemplate.update, and PreparedStatement setters used with
INSERT, UPDATE or DELETE statements.

Examples:
  inthunter --classesDir build/classes/java/main
  inthunter --archiveFile app.war --out findings.json
  inthunter --archiveFile app.ear --stagingDir /tmp/ih-work --out findings.sarif`,
	Args:          noArgs,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "install" || cmd.Name() == "version" || cmd.Name() == "help" {
			return
		}

		// only offer setup to a person at a terminal
		if quiet || !isatty.IsTerminal(os.Stderr.Fd()) || !isShellSupported() {
			return
		}

		if !completionsExist() {
			fmt.Fprintf(os.Stderr, "🔧 First run detected, setting up %s...\n", appName)
			if installCompletions(cmd.Root(), os.Stderr) == nil {
				fmt.Fprintln(os.Stderr, "✅ Shell completions installed")
				fmt.Fprintln(os.Stderr, "💡 Restart your shell to enable tab completion")
			} else {
				fmt.Fprintf(os.Stderr, "⚠️  Auto-setup failed. Run '%s install' to try again.\n", appName)
			}
		}
	},
	PreRunE: validateScanFlags,
	RunE:    runScan,
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return argumentErrorf("unexpected argument %q for %s", args[0], cmd.CommandPath())
	}
	return nil
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install shell completions",
	Args:  noArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !isInPath() {
			printPathInstructions(out)
			return
		}

		if !isShellSupported() {
			fmt.Fprintf(out, "❌ Shell completion not supported for: %s\n", detectShell())
			fmt.Fprintln(out, "Supported shells: bash, zsh, fish, powershell")
			return
		}

		if completionsExist() {
			fmt.Fprintln(out, "✅ Already configured!")
			return
		}

		fmt.Fprintln(out, "📦 Installing completions...")
		if err := installCompletions(cmd.Root(), out); err != nil {
			fmt.Fprintf(out, "❌ Failed: %v\n", err)
		} else {
			fmt.Fprintln(out, "✅ Done! Restart your shell to enable tab completion.")
		}
	},
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := rootCmd.ExecuteContextC(ctx)
	return exitCode(cmd, err, os.Stderr)
}

func exitCode(cmd *cobra.Command, err error, stderr io.Writer) int {
	var argErr *ArgumentError
	switch {
	case err == nil:
		return ExitClean
	case errors.Is(err, ErrFindings):
		return ExitFindings
	case errors.As(err, &argErr):
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		if cmd != nil {
			fmt.Fprint(stderr, cmd.UsageString())
		}
		return ExitUsage
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFatal
	}
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

func completionsExist() bool {
	home, _ := os.UserHomeDir()

	paths := map[string]string{
		"bash":       filepath.Join(home, ".local/share/bash-completion/completions", appName),
		"zsh":        filepath.Join(home, ".zsh/completions", "_"+appName),
		"fish":       filepath.Join(home, ".config/fish/completions", appName+".fish"),
		"powershell": filepath.Join(home, appName+"_completion.ps1"),
	}

	path := paths[detectShell()]
	_, err := os.Stat(path)
	return err == nil
}

func isShellSupported() bool {
	shell := detectShell()
	return shell == "bash" || shell == "zsh" || shell == "fish" || shell == "powershell"
}

func detectShell() string {
	if runtime.GOOS == "windows" {
		return "powershell"
	}

	shell := filepath.Base(os.Getenv("SHELL"))
	if shell == "" || shell == "." {
		return "bash"
	}
	return shell
}

type completionConfig struct {
	dir         string
	file        string
	genFunc     func(io.Writer) error
	activateCmd string
}

func installCompletions(rootCmd *cobra.Command, out io.Writer) error {
	home, _ := os.UserHomeDir()
	shell := detectShell()

	bashDir := filepath.Join(home, ".local/share/bash-completion/completions")
	zshDir := filepath.Join(home, ".zsh/completions")
	psFile := appName + "_completion.ps1"

	configs := map[string]completionConfig{
		"bash": {
			dir:         bashDir,
			file:        appName,
			genFunc:     rootCmd.GenBashCompletion,
			activateCmd: "source " + filepath.Join(bashDir, appName),
		},
		"zsh": {
			dir:         zshDir,
			file:        "_" + appName,
			genFunc:     rootCmd.GenZshCompletion,
			activateCmd: fmt.Sprintf("fpath=(%s $fpath) && autoload -U compinit && compinit", zshDir),
		},
		"fish": {
			dir:         filepath.Join(home, ".config/fish/completions"),
			file:        appName + ".fish",
			genFunc:     func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
			activateCmd: "complete --do-complete=" + appName,
		},
		"powershell": {
			dir:         home,
			file:        psFile,
			genFunc:     rootCmd.GenPowerShellCompletionWithDesc,
			activateCmd: ". " + filepath.Join(home, psFile),
		},
	}

	config, ok := configs[shell]
	if !ok {
		return fmt.Errorf("unsupported shell: %s", shell)
	}

	if err := os.MkdirAll(config.dir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(config.dir, config.file))
	if err != nil {
		return err
	}
	defer file.Close()

	if err := config.genFunc(file); err != nil {
		return err
	}

	fmt.Fprintf(out, "🔄 Run this command to enable auto-completions:\n")
	fmt.Fprintf(out, "   %s\n", config.activateCmd)

	return nil
}

func isInPath() bool {
	execPath, err := os.Executable()
	if err != nil {
		return false
	}

	paths := strings.Split(os.Getenv("PATH"), string(os.PathListSeparator))
	return slices.Contains(paths, filepath.Dir(execPath))
}

func printPathInstructions(out io.Writer) {
	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)

	fmt.Fprintf(out, "❌ %s not in PATH. Binary location: %s\n\n", appName, execPath)

	if runtime.GOOS == "windows" {
		fmt.Fprintf(out, "Add to PATH: %s\n", execDir)
	} else {
		fmt.Fprintf(out, "Add to shell profile: export PATH=\"%s:$PATH\"\n", execDir)
		fmt.Fprintf(out, "Or copy to: /usr/local/bin\n")
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ArgumentError{Err: err}
	})

	registerScanFlags()
	rootCmd.AddCommand(installCmd)
}
