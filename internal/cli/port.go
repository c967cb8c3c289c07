// port.go implements "harnessutil port" and its subcommands for handing
// out and inspecting reserved TCP ports.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/harnessutil/internal/logging"
	"github.com/shinji-kodama/harnessutil/internal/model"
	"github.com/shinji-kodama/harnessutil/internal/port"
)

// NewPortCommand creates the "port" command group.
func NewPortCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Allocate and inspect free TCP ports",
	}

	cmd.AddCommand(newPortFreeCommand())
	cmd.AddCommand(newPortListCommand())
	cmd.AddCommand(newPortReleaseCommand())
	cmd.AddCommand(newPortCheckCommand())

	return cmd
}

// newAllocator builds a port.Allocator from the loaded config.
func newAllocator() *port.Allocator {
	a := port.NewAllocator(logging.Component(logger, "port"))
	a.ReservedPortsFile = cfg.Port.ReservedPortsFile
	a.LockDir = cfg.Port.LockDir
	a.Committer = port.ShellCommitter{Prefix: cfg.Port.CommitPrefix}
	return a
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newPortFreeCommand() *cobra.Command {
	var naive bool

	cmd := &cobra.Command{
		Use:   "free",
		Short: "Print a free TCP port, reserving it in the kernel when possible",
		Long: `Bind an OS-assigned TCP port and print it. On Linux the port is first
appended to net.ipv4.ip_local_reserved_ports (through sudo -n by default)
so the kernel does not reuse it as an ephemeral port. Use --naive to skip
the reservation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   int
				err error
			)
			if naive {
				p, err = port.NaiveFreePort()
			} else {
				p, err = newAllocator().FreePort(commandContext(cmd))
			}
			if err != nil {
				return model.WrapCLIError(model.ExitPortAllocationFailed, "cannot allocate a free port", err)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"port": p})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		},
	}

	cmd.Flags().BoolVar(&naive, "naive", false, "Skip kernel reservation (racy)")
	return cmd
}

func newPortListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the kernel's reserved port list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ranges, err := newAllocator().Reserved()
			if err != nil {
				return model.WrapCLIError(model.ExitPortAllocationFailed, "cannot read reserved ports", err)
			}

			if jsonOutput {
				items := make([]map[string]int, 0, len(ranges))
				for _, r := range ranges {
					items = append(items, map[string]int{"lo": r.Lo, "hi": r.Hi})
				}
				return writeJSON(cmd.OutOrStdout(), items)
			}
			for _, r := range ranges {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), r.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newPortReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "release PORT",
		Short: "Remove a port previously added by \"port free\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePortArg(args[0])
			if err != nil {
				return err
			}

			err = newAllocator().Release(commandContext(cmd), p)
			if errors.Is(err, port.ErrNotReserved) {
				return model.WrapCLIError(model.ExitInvalidArgument, fmt.Sprintf("port %d is not reserved", p), err)
			}
			if err != nil {
				return model.WrapCLIError(model.ExitPortAllocationFailed, "cannot release port", err)
			}
			return nil
		},
	}
}

func newPortCheckCommand() *cobra.Command {
	var protocol string

	cmd := &cobra.Command{
		Use:   "check PORT",
		Short: "Report whether a port can be bound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePortArg(args[0])
			if err != nil {
				return err
			}
			proto, err := model.ParseProtocol(protocol)
			if err != nil {
				return model.WrapCLIError(model.ExitInvalidArgument, "invalid --protocol", err)
			}

			available := port.IsPortAvailable(p, proto)
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"port":      p,
					"protocol":  proto.String(),
					"available": available,
				})
			}

			state := "in use"
			if available {
				state = "available"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d/%s %s\n", p, proto, state)
			return err
		},
	}

	cmd.Flags().StringVar(&protocol, "protocol", "tcp", "Protocol to probe: tcp or udp")
	return cmd
}

func parsePortArg(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return 0, model.NewCLIError(model.ExitInvalidArgument, fmt.Sprintf("invalid port %q (valid: 1-65535)", s))
	}
	return p, nil
}
