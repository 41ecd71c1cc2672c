package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/quarterwave/ledgerstone/internal/numeric"
	"github.com/quarterwave/ledgerstone/internal/querysql"
)

// Accounts select column order (alphabetical, per querysql): balance, id, name.
// Events select column order: event_type, id, session_id, timestamp_ns, user_id.

// GetAccount fetches one account by id. Returns ErrNotFound if absent.
func GetAccount(ctx context.Context, q DBTX, id int64) (Account, error) {
	stmt, err := querysql.LookupByField("accounts", "id", querysql.Int64(id))
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	accounts, err := queryAccounts(ctx, q, stmt)
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	if len(accounts) == 0 {
		return Account{}, fmt.Errorf("get account %d: %w", id, ErrNotFound)
	}
	return accounts[0], nil
}

// GetAccountByName fetches one account by its exact (already normalized)
// name. The name is bound as a parameter; a value like `' OR '1'='1` matches
// only an account whose literal name is that string.
func GetAccountByName(ctx context.Context, q DBTX, name string) (Account, error) {
	stmt, err := querysql.LookupByField("accounts", "name", querysql.String(name))
	if err != nil {
		return Account{}, fmt.Errorf("get account by name: %w", err)
	}
	accounts, err := queryAccounts(ctx, q, stmt)
	if err != nil {
		return Account{}, fmt.Errorf("get account by name: %w", err)
	}
	if len(accounts) == 0 {
		return Account{}, fmt.Errorf("get account %q: %w", name, ErrNotFound)
	}
	return accounts[0], nil
}

// SearchAccountsByName finds accounts whose name contains needle. Wildcard
// metacharacters in needle match literally unless wildcard is true.
func SearchAccountsByName(ctx context.Context, q DBTX, needle string, wildcard bool) ([]Account, error) {
	stmt, err := querysql.PatternSearch("accounts", "name", needle, wildcard)
	if err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	accounts, err := queryAccounts(ctx, q, stmt)
	if err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	return accounts, nil
}

// ListAccounts returns every ordinary account (snowflake ids are positive,
// so the range excludes the system account) ordered by id.
func ListAccounts(ctx context.Context, q DBTX) ([]Account, error) {
	stmt, err := querysql.RangeQuery("accounts", "id", 1, math.MaxInt64)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts, err := queryAccounts(ctx, q, stmt)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// CountAccounts returns the number of ordinary accounts.
func CountAccounts(ctx context.Context, q DBTX) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE id > 0").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// GetEvent fetches one event by snowflake id. Returns ErrNotFound if absent.
func GetEvent(ctx context.Context, q DBTX, id int64) (Event, error) {
	stmt, err := querysql.LookupByField("events", "id", querysql.Int64(id))
	if err != nil {
		return Event{}, fmt.Errorf("get event: %w", err)
	}
	events, err := queryEvents(ctx, q, stmt)
	if err != nil {
		return Event{}, fmt.Errorf("get event: %w", err)
	}
	if len(events) == 0 {
		return Event{}, fmt.Errorf("get event %d: %w", id, ErrNotFound)
	}
	return events[0], nil
}

// EventsInRange returns events whose timestamp_ns lies in [lo, hi], compared
// in the native integer domain so one-nanosecond differences are respected.
func EventsInRange(ctx context.Context, q DBTX, lo, hi int64) ([]Event, error) {
	stmt, err := querysql.RangeQuery("events", "timestamp_ns", lo, hi)
	if err != nil {
		return nil, fmt.Errorf("events in range: %w", err)
	}
	events, err := queryEvents(ctx, q, stmt)
	if err != nil {
		return nil, fmt.Errorf("events in range: %w", err)
	}
	return events, nil
}

// SearchEventsByType finds events whose type contains needle (literally,
// unless wildcard is true).
func SearchEventsByType(ctx context.Context, q DBTX, needle string, wildcard bool) ([]Event, error) {
	stmt, err := querysql.PatternSearch("events", "event_type", needle, wildcard)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	events, err := queryEvents(ctx, q, stmt)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}

// LogEntries returns the most recent transfer log entries, newest first.
func LogEntries(ctx context.Context, q DBTX, limit int64) ([]LogEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, from_id, to_id, amount, ts, scope_token
		FROM transaction_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("log entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			raw [5]any
			e   LogEntry
		)
		if err := rows.Scan(&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &e.ScopeToken); err != nil {
			return nil, fmt.Errorf("log entries: scan: %w", err)
		}
		for i, dst := range []*int64{&e.ID, &e.FromID, &e.ToID, &e.Amount, &e.TS} {
			v, err := numeric.DecodeValue(raw[i])
			if err != nil {
				return nil, fmt.Errorf("log entries: %w", err)
			}
			*dst = v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("log entries: %w", err)
	}
	return entries, nil
}

// CountLog returns the number of transaction log entries.
func CountLog(ctx context.Context, q DBTX) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM transaction_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("count log: %w", err)
	}
	return n, nil
}

// GetCounter returns a counter's value and whether it exists.
func GetCounter(ctx context.Context, q DBTX, name string) (int64, bool, error) {
	stmt, err := querysql.LookupByField("counters", "name", querysql.String(name))
	if err != nil {
		return 0, false, fmt.Errorf("get counter: %w", err)
	}

	// Counters select column order: name, value.
	var (
		gotName string
		raw     any
	)
	err = q.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&gotName, &raw)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get counter: %w", err)
	}
	value, err := numeric.DecodeValue(raw)
	if err != nil {
		return 0, false, fmt.Errorf("get counter: %w", err)
	}
	return value, true, nil
}

// queryAccounts runs an accounts statement and decodes rows through the
// numeric codec (exact-integer retrieval mode).
func queryAccounts(ctx context.Context, q DBTX, stmt querysql.Statement) ([]Account, error) {
	rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var (
			rawBalance, rawID any
			a                 Account
		)
		if err := rows.Scan(&rawBalance, &rawID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.Balance, err = numeric.DecodeValue(rawBalance); err != nil {
			return nil, fmt.Errorf("account balance: %w", err)
		}
		if a.ID, err = numeric.DecodeValue(rawID); err != nil {
			return nil, fmt.Errorf("account id: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// queryEvents runs an events statement and decodes rows through the numeric
// codec. Optional fields come back as nil pointers when NULL.
func queryEvents(ctx context.Context, q DBTX, stmt querysql.Statement) ([]Event, error) {
	rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			rawID, rawSession, rawTS, rawUser any
			ev                                Event
		)
		if err := rows.Scan(&ev.Type, &rawID, &rawSession, &rawTS, &rawUser); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.ID, err = numeric.DecodeValue(rawID); err != nil {
			return nil, fmt.Errorf("event id: %w", err)
		}
		if ev.TimestampNS, err = numeric.DecodeValue(rawTS); err != nil {
			return nil, fmt.Errorf("event timestamp: %w", err)
		}
		if ev.SessionID, err = decodeOptional(rawSession); err != nil {
			return nil, fmt.Errorf("event session_id: %w", err)
		}
		if ev.UserID, err = decodeOptional(rawUser); err != nil {
			return nil, fmt.Errorf("event user_id: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func decodeOptional(raw any) (*int64, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := numeric.DecodeValue(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
