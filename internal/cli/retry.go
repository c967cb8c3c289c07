// retry.go implements "harnessutil retry", which reruns a command until it
// exits 0 or the retry budget runs out.
package cli

import (
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/harnessutil/internal/logging"
	"github.com/shinji-kodama/harnessutil/internal/model"
	"github.com/shinji-kodama/harnessutil/internal/retry"
)

type retryFlags struct {
	tries float64
	delay time.Duration
}

// NewRetryCommand creates the "retry" command.
func NewRetryCommand() *cobra.Command {
	flags := &retryFlags{}

	cmd := &cobra.Command{
		Use:   "retry [flags] -- COMMAND [ARGS...]",
		Short: "Run a command until it succeeds",
		Long: `Run COMMAND once, then retry it up to --tries more times while it exits
non-zero, sleeping --delay before each retry.

Examples:
  harnessutil retry -- curl -sf http://127.0.0.1:8081/health
  harnessutil retry --tries 10 --delay 500ms -- pg_isready -h localhost`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetry(cmd, flags, args)
		},
	}

	cmd.Flags().Float64Var(&flags.tries, "tries", retry.DefaultTries, "Retries after the first attempt (floored)")
	cmd.Flags().DurationVar(&flags.delay, "delay", retry.DefaultDelay, "Pause before each retry")
	// Stop flag parsing at COMMAND so its own flags pass through untouched.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runRetry(cmd *cobra.Command, flags *retryFlags, args []string) error {
	tries := cfg.RetryTries()
	if cmd.Flags().Changed("tries") {
		tries = retry.FloorTries(flags.tries)
	}
	delay := time.Duration(cfg.Retry.Delay)
	if cmd.Flags().Changed("delay") {
		delay = flags.delay
	}

	log := logging.Component(logger, "retry")
	r, err := retry.New(tries, delay, retry.WithLogger(log))
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidArgument, "invalid retry policy", err)
	}

	ctx := commandContext(cmd)

	attempts := 0
	ok, err := r.DoContext(ctx, func() bool {
		attempts++
		// #nosec G204 -- running the user's command is the point
		c := exec.CommandContext(ctx, args[0], args[1:]...)
		c.Stdout = cmd.OutOrStdout()
		c.Stderr = cmd.ErrOrStderr()
		runErr := c.Run()
		if runErr != nil {
			log.Debug().Int("attempt", attempts).Err(runErr).Msg("command failed")
		}
		return runErr == nil
	})
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "retry interrupted", err)
	}
	if !ok {
		return model.WrapCLIError(model.ExitRetryExhausted,
			fmt.Sprintf("%s did not succeed after %d attempts", args[0], attempts),
			errors.New("retries exhausted"))
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"attempts": attempts, "success": true})
	}
	return nil
}
