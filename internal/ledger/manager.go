package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/quarterwave/ledgerstone/internal/numeric"
	"github.com/quarterwave/ledgerstone/internal/store"
)

// Manager executes ledger operations against a store. It holds no entity
// state across calls: every operation opens, mutates, and closes its own
// transactional scope.
type Manager struct {
	store *store.Store
	node  *snowflake.Node
	clock Clock
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock substitutes the timestamp source. Used by tests for
// deterministic log timestamps.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// New creates a Manager over an open store. nodeID distinguishes id
// generators across ledger instances (0-1023).
func New(st *store.Store, nodeID int64, opts ...Option) (*Manager, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("new ledger: %w", err)
	}
	m := &Manager{store: st, node: node, clock: wallClock{}}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// AccountSpec describes an account to create.
type AccountSpec struct {
	Name    string
	Balance int64
}

// NormalizeName returns the canonical form of a display name: NFC-normalized
// and trimmed. The UNIQUE constraint compares canonical forms, so two
// spellings of the same composed character cannot create duplicate accounts.
func NormalizeName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// CreateAccount creates one account with a generated snowflake id.
func (m *Manager) CreateAccount(ctx context.Context, name string, balance int64) (store.Account, error) {
	accounts, err := m.BulkCreateAccounts(ctx, []AccountSpec{{Name: name, Balance: balance}})
	if err != nil {
		return store.Account{}, err
	}
	return accounts[0], nil
}

// BulkCreateAccounts creates every account in specs as one atomic scope.
// If any entry fails validation or the name uniqueness constraint, zero
// accounts from the batch persist.
func (m *Manager) BulkCreateAccounts(ctx context.Context, specs []AccountSpec) ([]store.Account, error) {
	// Validate the whole batch before any durable mutation.
	for _, spec := range specs {
		if NormalizeName(spec.Name) == "" {
			return nil, newValidationError(RuleNameRequired, "account name must be non-empty")
		}
		if spec.Balance < 0 {
			return nil, newValidationError(RuleBalanceNonNegative,
				fmt.Sprintf("initial balance %d for %q is negative", spec.Balance, spec.Name))
		}
	}

	sc, err := beginScope(ctx, m.store.Begin)
	if err != nil {
		return nil, err
	}
	defer sc.release()

	accounts := make([]store.Account, 0, len(specs))
	for _, spec := range specs {
		a := store.Account{
			ID:      m.node.Generate().Int64(),
			Name:    NormalizeName(spec.Name),
			Balance: spec.Balance,
		}
		if err := store.InsertAccount(ctx, sc.tx, a); err != nil {
			if store.IsUniqueViolation(err) {
				return nil, newConstraintError(RuleNameUnique,
					fmt.Sprintf("account name %q already exists", a.Name), sc.token)
			}
			return nil, fmt.Errorf("bulk create accounts: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := sc.commit(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Transfer moves amount (minor units) from one account to another as one
// atomic scope, appending a transaction log entry on success.
//
// All preconditions are validated before any mutation: amount must be
// positive and both accounts must exist. The debit itself is still guarded
// by the durable balance >= 0 constraint, which closes the gap between
// validation and mutation. On any failure both balances are unchanged.
//
// A self-transfer validates amount and existence, then commits without
// mutating anything.
func (m *Manager) Transfer(ctx context.Context, from, to, amount int64) error {
	if amount <= 0 {
		return newValidationError(RuleAmountPositive,
			fmt.Sprintf("transfer amount %d must be positive", amount))
	}

	sc, err := beginScope(ctx, m.store.Begin)
	if err != nil {
		return err
	}
	defer sc.release()

	if _, err := store.GetAccount(ctx, sc.tx, from); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newValidationError(RuleSourceExists,
				fmt.Sprintf("source account %d does not exist", from))
		}
		return fmt.Errorf("transfer: %w", err)
	}
	if _, err := store.GetAccount(ctx, sc.tx, to); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newValidationError(RuleDestinationExists,
				fmt.Sprintf("destination account %d does not exist", to))
		}
		return fmt.Errorf("transfer: %w", err)
	}

	if from == to {
		// Validated no-op.
		return sc.commit()
	}

	if err := store.AdjustBalance(ctx, sc.tx, from, -amount); err != nil {
		if store.IsCheckViolation(err) {
			return newConstraintError(RuleInsufficientFunds,
				fmt.Sprintf("debit of %d would drive account %d negative", amount, from), sc.token)
		}
		return fmt.Errorf("transfer debit: %w", err)
	}
	if err := store.AdjustBalance(ctx, sc.tx, to, amount); err != nil {
		return fmt.Errorf("transfer credit: %w", err)
	}

	entry := store.LogEntry{
		FromID:     from,
		ToID:       to,
		Amount:     amount,
		TS:         m.clock.NowNanos(),
		ScopeToken: sc.token,
	}
	if err := store.AppendLog(ctx, sc.tx, entry); err != nil {
		return newDependentStepError(RuleLogAppend,
			fmt.Sprintf("transaction log append failed: %v", err), sc.token)
	}

	if err := sc.commit(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"from": from, "to": to, "amount": amount, "scope": sc.token}).
		Debug("transfer committed")
	return nil
}

// Balance returns an account's current balance.
func (m *Manager) Balance(ctx context.Context, id int64) (int64, error) {
	a, err := store.GetAccount(ctx, m.store.DB(), id)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// FindAccountByName looks up an account by exact display name. The name is
// normalized, then bound as a parameter: hostile input matches only an
// account whose literal name equals it.
func (m *Manager) FindAccountByName(ctx context.Context, name string) (store.Account, error) {
	return store.GetAccountByName(ctx, m.store.DB(), NormalizeName(name))
}

// SearchAccounts finds accounts whose name contains needle. Wildcards in
// needle are literal unless wildcard is true.
func (m *Manager) SearchAccounts(ctx context.Context, needle string, wildcard bool) ([]store.Account, error) {
	return store.SearchAccountsByName(ctx, m.store.DB(), needle, wildcard)
}

// Log returns the most recent transfer log entries, newest first.
func (m *Manager) Log(ctx context.Context, limit int64) ([]store.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return store.LogEntries(ctx, m.store.DB(), limit)
}

// EventSpec describes an event to record. A zero TimestampNS means "now".
type EventSpec struct {
	Type        string
	TimestampNS int64
	UserID      *int64
	SessionID   *int64
}

// RecordEvent stores one event with a generated snowflake id, returning the
// stored record. A single insert is already atomic; no scope is opened.
func (m *Manager) RecordEvent(ctx context.Context, spec EventSpec) (store.Event, error) {
	if strings.TrimSpace(spec.Type) == "" {
		return store.Event{}, newValidationError(RuleNameRequired, "event type must be non-empty")
	}
	ts := spec.TimestampNS
	if ts == 0 {
		ts = m.clock.NowNanos()
	}
	ev := store.Event{
		ID:          m.node.Generate().Int64(),
		Type:        spec.Type,
		TimestampNS: ts,
		UserID:      spec.UserID,
		SessionID:   spec.SessionID,
	}
	if err := store.InsertEvent(ctx, m.store.DB(), ev); err != nil {
		return store.Event{}, err
	}
	return ev, nil
}

// FindBySnowflakeID fetches the event stored under id. Storing then looking
// up an id yields the identical bit pattern and exactly one record.
func (m *Manager) FindBySnowflakeID(ctx context.Context, id int64) (store.Event, error) {
	return store.GetEvent(ctx, m.store.DB(), id)
}

// EventsInRange returns events with timestamp_ns in [lo, hi].
func (m *Manager) EventsInRange(ctx context.Context, lo, hi int64) ([]store.Event, error) {
	return store.EventsInRange(ctx, m.store.DB(), lo, hi)
}

// DeleteEventsByType removes every event of the given literal type.
func (m *Manager) DeleteEventsByType(ctx context.Context, eventType string) (int64, error) {
	return store.DeleteEventsByType(ctx, m.store.DB(), eventType)
}

// IncrementCounter adds delta to a named counter (creating it at zero) and
// returns the new value. The addition is performed with checked 64-bit
// arithmetic; overflow fails with *numeric.OutOfRangeError and the counter
// is unchanged.
func (m *Manager) IncrementCounter(ctx context.Context, name string, delta int64) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, newValidationError(RuleNameRequired, "counter name must be non-empty")
	}

	sc, err := beginScope(ctx, m.store.Begin)
	if err != nil {
		return 0, err
	}
	defer sc.release()

	current, _, err := store.GetCounter(ctx, sc.tx, name)
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	next, err := numeric.CheckedAdd(current, delta)
	if err != nil {
		return 0, err
	}
	if err := store.SetCounter(ctx, sc.tx, name, next); err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}

	if err := sc.commit(); err != nil {
		return 0, err
	}
	return next, nil
}

// GetCounter returns a counter's value, zero when it was never incremented.
func (m *Manager) GetCounter(ctx context.Context, name string) (int64, error) {
	value, _, err := store.GetCounter(ctx, m.store.DB(), name)
	return value, err
}
