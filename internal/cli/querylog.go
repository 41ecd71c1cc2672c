package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryLogOptions holds flags for the query-log command.
type QueryLogOptions struct {
	*RootOptions
	Limit int64
}

// NewQueryLogCommand creates the query-log command.
func NewQueryLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryLogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query-log",
		Short: "Show recent transaction log entries",
		Long: `Show recent transaction log entries, newest first.

Each entry records a committed transfer: source, destination, amount, and
a nanosecond timestamp. Entries from rolled-back scopes never appear.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryLog(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Limit, "limit", 20, "maximum number of entries")

	return cmd
}

func runQueryLog(opts *QueryLogOptions, cmd *cobra.Command) error {
	m, closeStore, err := openLedger(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	entries, err := m.Log(cmd.Context(), opts.Limit)
	if err != nil {
		f.Failure(err)
		return NewExitError(ExitFailure, "")
	}

	if len(entries) == 0 {
		return f.Success("no transactions recorded", []any{})
	}

	var (
		lines []string
		data  []map[string]any
	)
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%d\t%d -> %d\tamount=%d\tts=%d", e.ID, e.FromID, e.ToID, e.Amount, e.TS))
		data = append(data, map[string]any{
			"id": e.ID, "from": e.FromID, "to": e.ToID, "amount": e.Amount, "ts": e.TS,
		})
	}
	return f.Success(strings.Join(lines, "\n"), data)
}
