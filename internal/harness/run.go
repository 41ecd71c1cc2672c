package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/quarterwave/ledgerstone/internal/ledger"
	"github.com/quarterwave/ledgerstone/internal/numeric"
	"github.com/quarterwave/ledgerstone/internal/querysql"
	"github.com/quarterwave/ledgerstone/internal/store"
	"github.com/quarterwave/ledgerstone/internal/testutil"
)

// clockEpoch is the fixed starting timestamp for scenario runs. Every
// run starts from the same instant so traces stay reproducible.
const clockEpoch = int64(1_690_000_000_000_000_000)

// TraceEvent records one executed flow step and its outcome.
type TraceEvent struct {
	Seq     int            `json:"seq"`
	Op      string         `json:"op"`
	Args    map[string]any `json:"args"`
	Outcome string         `json:"outcome"`
	Rule    string         `json:"rule,omitempty"`
}

// Result holds the trace produced by a scenario run.
type Result struct {
	Trace []TraceEvent
}

// Run executes a scenario against a fresh temporary store and evaluates
// its assertions. The flow aborts at the first step whose outcome does
// not match its expectation.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "harness-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, err
	}
	defer st.Close()

	clock := testutil.NewDeterministicClock(clockEpoch, 1)
	m, err := ledger.New(st, 1, ledger.WithClock(clock))
	if err != nil {
		return nil, err
	}

	ctx := context.Background()

	if len(scenario.Accounts) > 0 {
		specs := make([]ledger.AccountSpec, 0, len(scenario.Accounts))
		for _, a := range scenario.Accounts {
			specs = append(specs, ledger.AccountSpec{Name: a.Name, Balance: a.Balance})
		}
		if _, err := m.BulkCreateAccounts(ctx, specs); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	result := &Result{}
	for i, step := range scenario.Flow {
		opErr := runStep(ctx, m, step)

		event := TraceEvent{
			Seq:     i + 1,
			Op:      step.Op,
			Args:    step.Args,
			Outcome: outcome(opErr),
		}
		var le *ledger.Error
		if errors.As(opErr, &le) {
			event.Rule = le.Rule
		}
		result.Trace = append(result.Trace, event)

		expect := step.Expect
		if expect == "" {
			expect = "ok"
		}
		if event.Outcome != expect {
			return result, fmt.Errorf("flow[%d] %s: outcome %s, want %s (%v)",
				i, step.Op, event.Outcome, expect, opErr)
		}
	}

	for i, a := range scenario.Assertions {
		if err := checkAssertion(ctx, m, st, a); err != nil {
			return result, fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return result, nil
}

func runStep(ctx context.Context, m *ledger.Manager, step FlowStep) error {
	switch step.Op {
	case OpTransfer:
		amount, err := argInt64(step.Args, "amount")
		if err != nil {
			return err
		}
		from, err := resolveAccount(ctx, m, step.Args, "from")
		if err != nil {
			return err
		}
		to, err := resolveAccount(ctx, m, step.Args, "to")
		if err != nil {
			return err
		}
		return m.Transfer(ctx, from, to, amount)

	case OpCreateAccount:
		name, err := argString(step.Args, "name")
		if err != nil {
			return err
		}
		balance, err := argInt64(step.Args, "balance")
		if err != nil {
			return err
		}
		_, err = m.CreateAccount(ctx, name, balance)
		return err

	case OpCounterAdd:
		name, err := argString(step.Args, "name")
		if err != nil {
			return err
		}
		delta, err := argInt64(step.Args, "delta")
		if err != nil {
			return err
		}
		_, err = m.IncrementCounter(ctx, name, delta)
		return err

	case OpApplyInterest:
		raw, err := argString(step.Args, "rate")
		if err != nil {
			return err
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("rate %q: %w", raw, err)
		}
		return m.ApplyInterestToAll(ctx, rate)
	}

	return fmt.Errorf("unknown op %q", step.Op)
}

// outcome maps an operation error to a trace outcome token.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var le *ledger.Error
	if errors.As(err, &le) {
		return string(le.Code)
	}
	if numeric.IsOutOfRange(err) {
		return "OUT_OF_RANGE"
	}
	if querysql.IsBindingError(err) {
		return "BINDING_ERROR"
	}
	return "ERROR"
}

func checkAssertion(ctx context.Context, m *ledger.Manager, st *store.Store, a Assertion) error {
	switch a.Type {
	case AssertBalance:
		acct, err := m.FindAccountByName(ctx, a.Account)
		if err != nil {
			return fmt.Errorf("balance of %q: %w", a.Account, err)
		}
		if acct.Balance != a.Value {
			return fmt.Errorf("balance of %q = %d, want %d", a.Account, acct.Balance, a.Value)
		}

	case AssertLogCount:
		n, err := store.CountLog(ctx, st.DB())
		if err != nil {
			return err
		}
		if n != a.Count {
			return fmt.Errorf("log count = %d, want %d", n, a.Count)
		}

	case AssertCounter:
		value, err := m.GetCounter(ctx, a.Name)
		if err != nil {
			return fmt.Errorf("counter %q: %w", a.Name, err)
		}
		if value != a.Value {
			return fmt.Errorf("counter %q = %d, want %d", a.Name, value, a.Value)
		}
	}

	return nil
}

// resolveAccount maps an account name argument to its id. Names with no
// matching account resolve to an id that cannot exist, so existence
// rules fire inside the operation itself.
func resolveAccount(ctx context.Context, m *ledger.Manager, args map[string]any, key string) (int64, error) {
	name, err := argString(args, key)
	if err != nil {
		return 0, err
	}
	acct, err := m.FindAccountByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.ID, nil
}

func argString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: want string, got %T", key, raw)
	}
	return s, nil
}

// argInt64 extracts an integer argument. Floats are rejected outright:
// a scenario value like 1e17 would already have lost precision in YAML.
func argInt64(args map[string]any, key string) (int64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	}
	return 0, fmt.Errorf("argument %q: want integer, got %T", key, raw)
}
