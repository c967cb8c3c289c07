// Package cli implements the cobra-based CLI commands for harnessutil.
//
// Each subcommand (retry, fetch, buildroot, port, dump, config) lives in
// its own file within this package. This file defines the root command,
// the global flags and the shared config/logger setup.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/harnessutil/internal/config"
	"github.com/shinji-kodama/harnessutil/internal/logging"
	"github.com/shinji-kodama/harnessutil/internal/model"
)

// Global flag variables shared across all subcommands. They are bound to
// persistent flags on the root command.
var (
	// jsonOutput switches command output to JSON for machine consumption.
	jsonOutput bool

	// verbose enables debug logging on stderr.
	verbose bool

	// configPath points at an optional YAML/TOML/JSONC config file.
	configPath string
)

// Effective configuration and logger, populated in PersistentPreRunE
// before any subcommand runs.
var (
	cfg    = config.Default()
	logger = zerolog.Nop()
)

// Build-time version information, injected from the main package.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates the root cobra command with every subcommand
// registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "harnessutil",
		Short: "Helpers for shell-driven test harnesses",
		Long: `harnessutil bundles small helpers used by integration test suites:
retrying a command until it succeeds, fetching a URL, resolving the build
root, handing out free TCP ports (reserved in the kernel where possible)
and normalizing structured documents.`,

		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a .yaml, .toml or .jsonc config file")

	rootCmd.AddCommand(NewRetryCommand())
	rootCmd.AddCommand(NewFetchCommand())
	rootCmd.AddCommand(NewBuildRootCommand())
	rootCmd.AddCommand(NewPortCommand())
	rootCmd.AddCommand(NewDumpCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// setup loads the config file and builds the logger.
func setup(stderr io.Writer) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "cannot load configuration", err)
	}
	cfg = loaded
	logger = logging.New(stderr, verbose || cfg.Log.Verbose)
	return nil
}

// Execute runs the root command and translates errors into exit codes.
// CLIError values carry their own code; anything else exits with 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(os.Stderr, cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(os.Stderr, err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError writes an error as text or JSON depending on --json. Errors
// always go to stderr; stdout is reserved for command output.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]any{
			"message": message,
		}
		if underlying != nil {
			errObj["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(map[string]any{"error": errObj}, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		_, _ = fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		_, _ = fmt.Fprintf(w, "Error: %s\n", message)
	}
}
