package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <from-id> <to-id> <amount>",
		Short: "Atomically transfer funds between two accounts",
		Long: `Atomically transfer funds between two accounts.

Either the debit, the credit, and the log entry all commit, or none do.
A transfer that would drive the source balance negative fails and leaves
both balances unchanged.

Example:
  ledgerstone transfer 7060885367627898880 7060885367627898881 2500`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(rootOpts, cmd, args)
		},
	}
	return cmd
}

func runTransfer(opts *RootOptions, cmd *cobra.Command, args []string) error {
	ids := make([]int64, 3)
	for i, arg := range args {
		v, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid argument %q", arg), err)
		}
		ids[i] = v
	}
	from, to, amount := ids[0], ids[1], ids[2]

	m, closeStore, err := openLedger(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if err := m.Transfer(cmd.Context(), from, to, amount); err != nil {
		f.Failure(err)
		return NewExitError(ExitFailure, "")
	}

	return f.Success(
		fmt.Sprintf("transferred %d from %d to %d", amount, from, to),
		map[string]any{"from": from, "to": to, "amount": amount},
	)
}
