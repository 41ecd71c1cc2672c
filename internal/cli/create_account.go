package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewCreateAccountCommand creates the create-account command.
func NewCreateAccountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-account <name> <balance>",
		Short: "Create a ledger account with an initial balance",
		Long: `Create a ledger account with an initial balance in minor currency units.

The name may contain arbitrary characters; it is stored literally.

Example:
  ledgerstone create-account "Alice" 10000`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAccount(rootOpts, cmd, args[0], args[1])
		},
	}
	return cmd
}

func runCreateAccount(opts *RootOptions, cmd *cobra.Command, name, balanceArg string) error {
	balance, err := strconv.ParseInt(balanceArg, 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid balance %q", balanceArg), err)
	}

	m, closeStore, err := openLedger(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	acct, err := m.CreateAccount(cmd.Context(), name, balance)
	if err != nil {
		f.Failure(err)
		return NewExitError(ExitFailure, "")
	}

	return f.Success(
		fmt.Sprintf("created account %d (%s) with balance %d", acct.ID, acct.Name, acct.Balance),
		map[string]any{"id": acct.ID, "name": acct.Name, "balance": acct.Balance},
	)
}
