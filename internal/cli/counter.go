package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewCounterCommand creates the counter command group.
func NewCounterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Read and increment named 64-bit counters",
	}

	cmd.AddCommand(newCounterGetCommand(rootOpts))
	cmd.AddCommand(newCounterAddCommand(rootOpts))

	return cmd
}

func newCounterGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <name>",
		Short:         "Print a counter's current value",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closeStore, err := openLedger(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			value, err := m.GetCounter(cmd.Context(), args[0])
			if err != nil {
				f.Failure(err)
				return NewExitError(ExitFailure, "")
			}
			return f.Success(
				strconv.FormatInt(value, 10),
				map[string]any{"name": args[0], "value": value},
			)
		},
	}
}

func newCounterAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add <name> <delta>",
		Short:         "Increment a counter by a signed delta",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid delta %q", args[1]), err)
			}

			m, closeStore, err := openLedger(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore()

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			value, err := m.IncrementCounter(cmd.Context(), args[0], delta)
			if err != nil {
				f.Failure(err)
				return NewExitError(ExitFailure, "")
			}
			return f.Success(
				strconv.FormatInt(value, 10),
				map[string]any{"name": args[0], "value": value},
			)
		},
	}
}
