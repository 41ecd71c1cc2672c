package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"github.com/spf13/cobra"

	"github.com/quarterwave/ledgerstone/internal/ledger"
)

// batchSchema constrains an account batch file. Validation happens before
// any account reaches the ledger, so a malformed batch creates nothing.
const batchSchema = `
accounts: [...{
	name:    string & !=""
	balance: int & >=0
}]
`

// accountBatch is the decoded form of a CUE batch file.
type accountBatch struct {
	Accounts []struct {
		Name    string `json:"name"`
		Balance int64  `json:"balance"`
	} `json:"accounts"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <batch.cue>",
		Short: "Create a batch of accounts from a CUE file, all-or-nothing",
		Long: `Create a batch of accounts from a CUE file.

The file must declare an "accounts" list of {name, balance} records. The
batch is validated against a schema first, then created as one atomic
scope: if any entry fails, zero accounts persist.

Example:
  ledgerstone load accounts.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runLoad(opts *RootOptions, cmd *cobra.Command, path string) error {
	batch, err := loadAccountBatch(path)
	if err != nil {
		return err
	}

	specs := make([]ledger.AccountSpec, 0, len(batch.Accounts))
	for _, a := range batch.Accounts {
		specs = append(specs, ledger.AccountSpec{Name: a.Name, Balance: a.Balance})
	}

	m, closeStore, err := openLedger(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	accounts, err := m.BulkCreateAccounts(cmd.Context(), specs)
	if err != nil {
		f.Failure(err)
		return NewExitError(ExitFailure, "")
	}

	data := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		data = append(data, map[string]any{"id": a.ID, "name": a.Name, "balance": a.Balance})
	}
	return f.Success(
		fmt.Sprintf("created %d accounts", len(accounts)),
		data,
	)
}

// loadAccountBatch loads, validates, and decodes one CUE batch file.
func loadAccountBatch(path string) (*accountBatch, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("batch file not found: %s", path))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "access batch file", err)
	}
	if info.IsDir() {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("not a file: %s", path))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "resolve batch file path", err)
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: filepath.Dir(abs)}
	instances := load.Instances([]string{filepath.Base(abs)}, cfg)
	if len(instances) == 0 {
		return nil, NewExitError(ExitCommandError, "no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, WrapExitError(ExitCommandError, "loading CUE file", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, WrapExitError(ExitCommandError, "building CUE value", err)
	}

	schema := ctx.CompileString(batchSchema)
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, WrapExitError(ExitFailure, "batch failed schema validation", err)
	}

	var batch accountBatch
	if err := unified.Decode(&batch); err != nil {
		return nil, WrapExitError(ExitCommandError, "decoding batch", err)
	}
	if len(batch.Accounts) == 0 {
		return nil, NewExitError(ExitFailure, "batch declares no accounts")
	}
	return &batch, nil
}
