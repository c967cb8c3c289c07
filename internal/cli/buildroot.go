// buildroot.go implements "harnessutil buildroot".
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/harnessutil/internal/buildroot"
)

// NewBuildRootCommand creates the "buildroot" command.
func NewBuildRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "buildroot [PATH]",
		Short: "Print the build root for a source tree",
		Long: `Print $BUILDTOP if it is set, otherwise PATH/build/debug. PATH defaults
to the current directory. The variable name and suffix are configurable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}

			resolver := buildroot.Resolver{
				EnvVar: cfg.BuildRoot.Env,
				Suffix: cfg.BuildRoot.Suffix,
			}
			root := resolver.Resolve(path)

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"buildroot": root})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), root)
			return err
		},
	}
}
