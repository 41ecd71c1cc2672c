package store

import (
	"context"
	"fmt"

	"github.com/quarterwave/ledgerstone/internal/querysql"
)

// InsertAccount inserts one account row.
// A duplicate name or id surfaces as a UNIQUE constraint error; callers map
// it with IsUniqueViolation. A negative balance trips the CHECK constraint.
func InsertAccount(ctx context.Context, q DBTX, a Account) error {
	stmt, err := querysql.InsertAccount.Bind(map[string]querysql.Value{
		"id":      querysql.Int64(a.ID),
		"name":    querysql.String(a.Name),
		"balance": querysql.Int64(a.Balance),
	})
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	if _, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// AdjustBalance applies a signed delta to one account's balance.
//
// The update itself carries the durable guard: the balance >= 0 CHECK
// constraint rejects a debit past zero at write time, independent of any
// validation the caller performed earlier. Returns ErrNotFound when the
// account does not exist.
func AdjustBalance(ctx context.Context, q DBTX, id, delta int64) error {
	stmt, err := querysql.AdjustBalance.Bind(map[string]querysql.Value{
		"delta": querysql.Int64(delta),
		"id":    querysql.Int64(id),
	})
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}

	res, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("adjust balance account %d: %w", id, ErrNotFound)
	}
	return nil
}

// AppendLog records one completed transfer in the transaction log.
func AppendLog(ctx context.Context, q DBTX, e LogEntry) error {
	stmt, err := querysql.AppendLog.Bind(map[string]querysql.Value{
		"from_id":     querysql.Int64(e.FromID),
		"to_id":       querysql.Int64(e.ToID),
		"amount":      querysql.Int64(e.Amount),
		"ts":          querysql.Int64(e.TS),
		"scope_token": querysql.String(e.ScopeToken),
	})
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}

	if _, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// InsertEvent records one event. Optional user/session ids bind as NULL.
func InsertEvent(ctx context.Context, q DBTX, ev Event) error {
	values := map[string]querysql.Value{
		"id":           querysql.Int64(ev.ID),
		"event_type":   querysql.String(ev.Type),
		"timestamp_ns": querysql.Int64(ev.TimestampNS),
		"user_id":      optionalInt64(ev.UserID),
		"session_id":   optionalInt64(ev.SessionID),
	}

	stmt, err := querysql.InsertEvent.Bind(values)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if _, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// SetCounter stores an already-computed counter value. The increment is
// performed by the caller with checked 64-bit arithmetic; this write is a
// plain upsert of the result.
func SetCounter(ctx context.Context, q DBTX, name string, value int64) error {
	stmt, err := querysql.UpsertCounter.Bind(map[string]querysql.Value{
		"name":  querysql.String(name),
		"value": querysql.Int64(value),
	})
	if err != nil {
		return fmt.Errorf("set counter: %w", err)
	}

	if _, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return fmt.Errorf("set counter: %w", err)
	}
	return nil
}

// DeleteEventsByType removes every event of the given type, returning the
// number of rows deleted. The type string is bound as a parameter; quotes or
// wildcards inside it have no structural effect.
func DeleteEventsByType(ctx context.Context, q DBTX, eventType string) (int64, error) {
	stmt, err := querysql.DeleteByField("events", "event_type", querysql.String(eventType))
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}

	res, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete events: rows affected: %w", err)
	}
	return n, nil
}

func optionalInt64(p *int64) querysql.Value {
	if p == nil {
		return querysql.Null{}
	}
	return querysql.Int64(*p)
}
