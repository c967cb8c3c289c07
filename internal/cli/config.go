// config.go implements "harnessutil config show".
package cli

import (
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the "config" command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configuration after defaults and --config are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := formatYAML
			if jsonOutput {
				format = formatJSON
			}
			return writeStructured(cmd.OutOrStdout(), cfg, format)
		},
	})

	return cmd
}
