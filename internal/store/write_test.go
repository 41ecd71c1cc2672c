package store

import (
	"context"
	"math"
	"testing"
)

func TestInsertAccount_Basic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acct := Account{ID: 7060885367627898880, Name: "Alice", Balance: 100}
	if err := InsertAccount(ctx, s.DB(), acct); err != nil {
		t.Fatalf("InsertAccount() failed: %v", err)
	}

	got, err := GetAccount(ctx, s.DB(), acct.ID)
	if err != nil {
		t.Fatalf("GetAccount() failed: %v", err)
	}
	if got != acct {
		t.Errorf("account = %+v, want %+v", got, acct)
	}
}

func TestInsertAccount_DuplicateName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := InsertAccount(ctx, s.DB(), Account{ID: 1, Name: "Alice", Balance: 10}); err != nil {
		t.Fatalf("first InsertAccount() failed: %v", err)
	}

	err := InsertAccount(ctx, s.DB(), Account{ID: 2, Name: "Alice", Balance: 20})
	if !IsUniqueViolation(err) {
		t.Errorf("duplicate name error = %v, want unique violation", err)
	}
}

func TestInsertAccount_NegativeBalanceRejectedDurably(t *testing.T) {
	s := openTestStore(t)

	err := InsertAccount(context.Background(), s.DB(), Account{ID: 1, Name: "Bad", Balance: -5})
	if !IsCheckViolation(err) {
		t.Errorf("negative balance error = %v, want check violation", err)
	}
}

func TestAdjustBalance_CheckConstraintStopsOverdraft(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := InsertAccount(ctx, s.DB(), Account{ID: 1, Name: "Alice", Balance: 100}); err != nil {
		t.Fatalf("InsertAccount() failed: %v", err)
	}

	// The durable constraint, not a pre-check, rejects the overdraft.
	err := AdjustBalance(ctx, s.DB(), 1, -150)
	if !IsCheckViolation(err) {
		t.Errorf("overdraft error = %v, want check violation", err)
	}

	got, err := GetAccount(ctx, s.DB(), 1)
	if err != nil {
		t.Fatalf("GetAccount() failed: %v", err)
	}
	if got.Balance != 100 {
		t.Errorf("balance = %d, want unchanged 100", got.Balance)
	}
}

func TestAdjustBalance_MissingAccount(t *testing.T) {
	s := openTestStore(t)

	err := AdjustBalance(context.Background(), s.DB(), 999, 10)
	if err == nil {
		t.Fatal("AdjustBalance() on missing account succeeded, want error")
	}
}

func TestAppendLog_ForeignKeyEnforced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := AppendLog(ctx, s.DB(), LogEntry{FromID: 41, ToID: 42, Amount: 5, TS: 1, ScopeToken: "tok"})
	if !IsForeignKeyViolation(err) {
		t.Errorf("dangling log entry error = %v, want foreign key violation", err)
	}
}

func TestInsertEvent_FullWidthRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	userID := int64(math.MaxInt64)
	sessionID := int64(math.MinInt64 + 1)
	ev := Event{
		ID:          7060885367627898880,
		Type:        "login",
		TimestampNS: (1 << 53) + 7, // beyond float64-exact range
		UserID:      &userID,
		SessionID:   &sessionID,
	}
	if err := InsertEvent(ctx, s.DB(), ev); err != nil {
		t.Fatalf("InsertEvent() failed: %v", err)
	}

	got, err := GetEvent(ctx, s.DB(), ev.ID)
	if err != nil {
		t.Fatalf("GetEvent() failed: %v", err)
	}
	if got.ID != ev.ID || got.TimestampNS != ev.TimestampNS {
		t.Errorf("event = %+v, want bit-exact fields from %+v", got, ev)
	}
	if got.UserID == nil || *got.UserID != userID {
		t.Errorf("user_id = %v, want %d", got.UserID, userID)
	}
	if got.SessionID == nil || *got.SessionID != sessionID {
		t.Errorf("session_id = %v, want %d", got.SessionID, sessionID)
	}
}

func TestInsertEvent_OptionalFieldsNull(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ev := Event{ID: 1, Type: "ping", TimestampNS: 1}
	if err := InsertEvent(ctx, s.DB(), ev); err != nil {
		t.Fatalf("InsertEvent() failed: %v", err)
	}

	got, err := GetEvent(ctx, s.DB(), 1)
	if err != nil {
		t.Fatalf("GetEvent() failed: %v", err)
	}
	if got.UserID != nil || got.SessionID != nil {
		t.Errorf("optional fields = %v/%v, want nil/nil", got.UserID, got.SessionID)
	}
}

func TestSetCounter_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := SetCounter(ctx, s.DB(), "c", 10); err != nil {
		t.Fatalf("SetCounter() failed: %v", err)
	}
	if err := SetCounter(ctx, s.DB(), "c", math.MaxInt64); err != nil {
		t.Fatalf("SetCounter() update failed: %v", err)
	}

	value, ok, err := GetCounter(ctx, s.DB(), "c")
	if err != nil {
		t.Fatalf("GetCounter() failed: %v", err)
	}
	if !ok || value != math.MaxInt64 {
		t.Errorf("counter = %d (ok=%v), want MaxInt64", value, ok)
	}
}

func TestDeleteEventsByType_LiteralMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, typ := range []string{"debug", "debug", "audit"} {
		if err := InsertEvent(ctx, s.DB(), Event{ID: int64(i + 1), Type: typ, TimestampNS: int64(i)}); err != nil {
			t.Fatalf("InsertEvent() failed: %v", err)
		}
	}

	n, err := DeleteEventsByType(ctx, s.DB(), "debug")
	if err != nil {
		t.Fatalf("DeleteEventsByType() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	// A hostile type string deletes nothing, matches nothing.
	n, err = DeleteEventsByType(ctx, s.DB(), "audit' OR '1'='1")
	if err != nil {
		t.Fatalf("DeleteEventsByType() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted = %d, want 0 for injection payload", n)
	}

	if _, err := GetEvent(ctx, s.DB(), 3); err != nil {
		t.Errorf("audit event should survive: %v", err)
	}
}
