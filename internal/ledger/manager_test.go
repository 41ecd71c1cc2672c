package ledger

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarterwave/ledgerstone/internal/numeric"
	"github.com/quarterwave/ledgerstone/internal/store"
	"github.com/quarterwave/ledgerstone/internal/testutil"
)

// setupTestLedger creates a Manager over a real SQLite store with a
// deterministic clock.
func setupTestLedger(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	m, err := New(s, 1, WithClock(testutil.NewDeterministicClock(1_700_000_000_000_000_000, 1)))
	require.NoError(t, err)
	return m, s
}

func mustCreate(t *testing.T, m *Manager, name string, balance int64) store.Account {
	t.Helper()
	a, err := m.CreateAccount(context.Background(), name, balance)
	require.NoError(t, err)
	return a
}

func TestTransfer_MovesFundsAndLogs(t *testing.T) {
	m, s := setupTestLedger(t)
	ctx := context.Background()

	alice := mustCreate(t, m, "Alice", 100)
	bob := mustCreate(t, m, "Bob", 50)

	require.NoError(t, m.Transfer(ctx, alice.ID, bob.ID, 30))

	aliceBalance, err := m.Balance(ctx, alice.ID)
	require.NoError(t, err)
	bobBalance, err := m.Balance(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), aliceBalance)
	assert.Equal(t, int64(80), bobBalance)

	entries, err := m.Log(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, alice.ID, entries[0].FromID)
	assert.Equal(t, bob.ID, entries[0].ToID)
	assert.Equal(t, int64(30), entries[0].Amount)
	assert.NotEmpty(t, entries[0].ScopeToken)

	n, err := store.CountLog(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTransfer_InsufficientFundsRollsBack(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	alice := mustCreate(t, m, "Alice", 100)
	bob := mustCreate(t, m, "Bob", 50)

	err := m.Transfer(ctx, alice.ID, bob.ID, 150)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err), "error = %v", err)

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, RuleInsufficientFunds, le.Rule)

	// Balances byte-for-byte unchanged.
	aliceBalance, err := m.Balance(ctx, alice.ID)
	require.NoError(t, err)
	bobBalance, err := m.Balance(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), aliceBalance)
	assert.Equal(t, int64(50), bobBalance)

	// And no log entry survived the rollback.
	entries, err := m.Log(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTransfer_NonPositiveAmount(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	alice := mustCreate(t, m, "Alice", 100)
	bob := mustCreate(t, m, "Bob", 50)

	for _, amount := range []int64{0, -10} {
		err := m.Transfer(ctx, alice.ID, bob.ID, amount)
		assert.True(t, IsValidation(err), "amount %d: error = %v", amount, err)
	}

	aliceBalance, _ := m.Balance(ctx, alice.ID)
	assert.Equal(t, int64(100), aliceBalance)
}

func TestTransfer_MissingDestination(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	alice := mustCreate(t, m, "Alice", 100)

	err := m.Transfer(ctx, alice.ID, 424242, 10)
	require.Error(t, err)
	assert.True(t, IsValidation(err), "error = %v", err)

	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, RuleDestinationExists, le.Rule)

	aliceBalance, _ := m.Balance(ctx, alice.ID)
	assert.Equal(t, int64(100), aliceBalance)
}

func TestTransfer_SelfTransferIsValidatedNoOp(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	alice := mustCreate(t, m, "Alice", 100)

	// Still validates amount.
	err := m.Transfer(ctx, alice.ID, alice.ID, -1)
	assert.True(t, IsValidation(err))

	// Valid self-transfer changes nothing and logs nothing.
	require.NoError(t, m.Transfer(ctx, alice.ID, alice.ID, 10))
	balance, _ := m.Balance(ctx, alice.ID)
	assert.Equal(t, int64(100), balance)

	entries, err := m.Log(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBulkCreateAccounts_AllOrNothing(t *testing.T) {
	m, s := setupTestLedger(t)
	ctx := context.Background()

	mustCreate(t, m, "Existing", 10)
	before, err := store.CountAccounts(ctx, s.DB())
	require.NoError(t, err)

	// Negative balance invalidates the whole batch before any write.
	_, err = m.BulkCreateAccounts(ctx, []AccountSpec{
		{Name: "Carol", Balance: 5},
		{Name: "Dave", Balance: -1},
	})
	assert.True(t, IsValidation(err), "error = %v", err)

	// Duplicate name trips the uniqueness constraint mid-batch.
	_, err = m.BulkCreateAccounts(ctx, []AccountSpec{
		{Name: "Erin", Balance: 5},
		{Name: "Existing", Balance: 5},
	})
	assert.True(t, IsConstraintViolation(err), "error = %v", err)

	after, err := store.CountAccounts(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed batches must persist zero accounts")
}

func TestBulkCreateAccounts_Success(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	accounts, err := m.BulkCreateAccounts(ctx, []AccountSpec{
		{Name: "Carol", Balance: 0},
		{Name: "Dave", Balance: 7},
	})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Positive(t, accounts[0].ID)
	assert.NotEqual(t, accounts[0].ID, accounts[1].ID)

	balance, err := m.Balance(ctx, accounts[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance)
}

func TestCreateAccount_NormalizesName(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	// "é" as 'e' + combining acute; normalizes to the composed form.
	decomposed := "René"
	composed := "René"

	created := mustCreate(t, m, decomposed, 1)
	assert.Equal(t, composed, created.Name)

	// The composed spelling now collides.
	_, err := m.CreateAccount(ctx, composed, 1)
	assert.True(t, IsConstraintViolation(err), "error = %v", err)

	// Lookup with either spelling finds the account.
	found, err := m.FindAccountByName(ctx, decomposed)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestFindAccountByName_InjectionReturnsNothing(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	mustCreate(t, m, "Alice", 100)

	_, err := m.FindAccountByName(ctx, "' OR '1'='1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIncrementCounter_ExactAcrossSafeIntegerBoundary(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	// Start 5 below 2^53-1, then ten increments of 1: the result is exact
	// only if every step used integer arithmetic.
	const maxSafe = int64(1<<53 - 1)
	_, err := m.IncrementCounter(ctx, "c", maxSafe-5)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err = m.IncrementCounter(ctx, "c", 1)
		require.NoError(t, err)
	}

	value, err := m.GetCounter(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, maxSafe+5, value)
}

func TestIncrementCounter_OverflowRejected(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	_, err := m.IncrementCounter(ctx, "c", math.MaxInt64)
	require.NoError(t, err)

	_, err = m.IncrementCounter(ctx, "c", 1)
	assert.True(t, numeric.IsOutOfRange(err), "error = %v", err)

	// Counter unchanged after the rejected increment.
	value, err := m.GetCounter(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), value)
}

func TestIncrementCounter_NegativeDeltas(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	_, err := m.IncrementCounter(ctx, "c", -100)
	require.NoError(t, err)
	_, err = m.IncrementCounter(ctx, "c", 40)
	require.NoError(t, err)

	value, err := m.GetCounter(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(-60), value)
}

func TestRecordEvent_SnowflakeRoundTrip(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	userID := int64((1 << 53) + 99)
	ev, err := m.RecordEvent(ctx, EventSpec{Type: "login", UserID: &userID})
	require.NoError(t, err)
	assert.Positive(t, ev.ID)

	got, err := m.FindBySnowflakeID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, ev.TimestampNS, got.TimestampNS)
	require.NotNil(t, got.UserID)
	assert.Equal(t, userID, *got.UserID)
}

func TestEventsInRange_OneNanosecondApart(t *testing.T) {
	m, _ := setupTestLedger(t)
	ctx := context.Background()

	first, err := m.RecordEvent(ctx, EventSpec{Type: "tick"})
	require.NoError(t, err)
	second, err := m.RecordEvent(ctx, EventSpec{Type: "tick"})
	require.NoError(t, err)
	require.Equal(t, first.TimestampNS+1, second.TimestampNS)

	events, err := m.EventsInRange(ctx, second.TimestampNS, second.TimestampNS)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, second.ID, events[0].ID)
}
