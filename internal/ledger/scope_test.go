package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarterwave/ledgerstone/internal/store"
)

func openScopeTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScope_CommitIsTerminal(t *testing.T) {
	s := openScopeTestStore(t)

	sc, err := beginScope(context.Background(), s.Begin)
	require.NoError(t, err)
	assert.Equal(t, scopeActive, sc.state)
	assert.NotEmpty(t, sc.token)

	require.NoError(t, sc.commit())
	assert.Equal(t, scopeCommitted, sc.state)

	// A committed scope is not reused.
	assert.Error(t, sc.commit())
	assert.Equal(t, scopeCommitted, sc.state)
}

func TestScope_ReleaseRollsBackActive(t *testing.T) {
	s := openScopeTestStore(t)
	ctx := context.Background()

	sc, err := beginScope(ctx, s.Begin)
	require.NoError(t, err)

	require.NoError(t, store.InsertAccount(ctx, sc.tx, store.Account{ID: 1, Name: "Tentative", Balance: 5}))
	sc.release()
	assert.Equal(t, scopeRolledBack, sc.state)

	// The tentative write is gone.
	_, err = store.GetAccount(ctx, s.DB(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Release after a terminal state is a no-op.
	sc.release()
	assert.Equal(t, scopeRolledBack, sc.state)

	// And commit after rollback fails.
	assert.Error(t, sc.commit())
}

func TestScope_ReleaseAfterCommitKeepsEffects(t *testing.T) {
	s := openScopeTestStore(t)
	ctx := context.Background()

	sc, err := beginScope(ctx, s.Begin)
	require.NoError(t, err)
	require.NoError(t, store.InsertAccount(ctx, sc.tx, store.Account{ID: 1, Name: "Durable", Balance: 5}))
	require.NoError(t, sc.commit())

	// The deferred release on the success path must not undo the commit.
	sc.release()
	assert.Equal(t, scopeCommitted, sc.state)

	got, err := store.GetAccount(ctx, s.DB(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Balance)
}

func TestScope_TokensAreUnique(t *testing.T) {
	s := openScopeTestStore(t)
	ctx := context.Background()

	sc1, err := beginScope(ctx, s.Begin)
	require.NoError(t, err)
	sc1.release()

	sc2, err := beginScope(ctx, s.Begin)
	require.NoError(t, err)
	sc2.release()

	assert.NotEqual(t, sc1.token, sc2.token)
}
