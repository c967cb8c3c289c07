// fetch.go implements "harnessutil fetch", printing the body behind a URL.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/harnessutil/internal/config"
	"github.com/shinji-kodama/harnessutil/internal/fetch"
	"github.com/shinji-kodama/harnessutil/internal/logging"
	"github.com/shinji-kodama/harnessutil/internal/model"
)

type fetchFlags struct {
	native bool
	client string
}

// NewFetchCommand creates the "fetch" command.
func NewFetchCommand() *cobra.Command {
	flags := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Fetch a URL and print the response body",
		Long: `Fetch URL with the configured HTTP client (curl by default) and write the
body to stdout. Any failure yields exit code 5 with no further detail.

The URL is passed through sh unescaped in shell mode.

Examples:
  harnessutil fetch http://127.0.0.1:8081/analytics/uves
  harnessutil fetch --native https://localhost:8443/status`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, flags, args[0])
		},
	}

	cmd.Flags().BoolVar(&flags.native, "native", false, "Fetch in-process instead of shelling out")
	cmd.Flags().StringVar(&flags.client, "client", "", "Override the shell client command (e.g. \"curl -s\")")

	return cmd
}

// newFetcher builds the fetcher selected by config and flags.
func newFetcher(flags *fetchFlags) (fetch.Fetcher, error) {
	log := logging.Component(logger, "fetch")

	if flags.native || cfg.Fetch.Mode == config.FetchModeNative {
		return fetch.NewNativeFetcher(time.Duration(cfg.Fetch.Timeout), log)
	}

	client := cfg.Fetch.Client
	if flags.client != "" {
		client = flags.client
	}
	return &fetch.ShellFetcher{Client: client, Logger: log}, nil
}

func runFetch(cmd *cobra.Command, flags *fetchFlags, url string) error {
	fetcher, err := newFetcher(flags)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "cannot build fetcher", err)
	}

	ctx := commandContext(cmd)

	body := fetcher.Fetch(ctx, url)
	if body == nil {
		return model.NewCLIError(model.ExitFetchFailed, "no output from "+url)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"url": url, "body": string(body)})
	}
	_, err = cmd.OutOrStdout().Write(body)
	return err
}
