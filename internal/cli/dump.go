// dump.go implements "harnessutil dump", which normalizes a structured
// document so test fixtures in different formats can be compared.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/harnessutil/internal/config"
	"github.com/shinji-kodama/harnessutil/internal/model"
)

// NewDumpCommand creates the "dump" command.
func NewDumpCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Re-emit a YAML, TOML or JSON(C) document as plain YAML or JSON",
		Long: `Decode FILE (format chosen by extension), flatten it into plain maps,
lists and scalars, and print it. Map keys are stringified, comments are
dropped and TOML dates become RFC 3339 strings.

Examples:
  harnessutil dump fixtures/uve.toml
  harnessutil dump --format json .devcontainer/devcontainer.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				format = formatJSON
			}
			if format != formatYAML && format != formatJSON {
				return model.NewCLIError(model.ExitInvalidArgument, "invalid --format "+format+" (valid: yaml, json)")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "cannot read "+args[0], err)
			}

			var doc any
			if err := config.Decode(args[0], data, &doc); err != nil {
				return model.WrapCLIError(model.ExitInvalidArgument, "cannot decode "+args[0], err)
			}
			return writeStructured(cmd.OutOrStdout(), doc, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "Output format: yaml or json")
	return cmd
}
