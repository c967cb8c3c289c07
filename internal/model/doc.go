// Package model defines the shared value types for the harnessutil CLI.
//
// It holds the exit codes (ExitCode) and the error type (CLIError) that the
// cli package uses to translate helper failures into process exit statuses,
// plus the small Protocol enum shared by the port probe and the CLI.
package model
