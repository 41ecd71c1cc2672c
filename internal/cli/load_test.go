package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarterwave/ledgerstone/internal/ledger"
	"github.com/quarterwave/ledgerstone/internal/store"
)

func TestLoadAccountBatch(t *testing.T) {
	batch, err := loadAccountBatch(filepath.Join("testdata", "accounts.cue"))
	require.NoError(t, err)
	require.Len(t, batch.Accounts, 3)

	assert.Equal(t, "Alice", batch.Accounts[0].Name)
	assert.Equal(t, int64(10000), batch.Accounts[0].Balance)
	assert.Equal(t, "Carol", batch.Accounts[2].Name)
	assert.Equal(t, int64(0), batch.Accounts[2].Balance)
}

func TestLoadAccountBatch_NegativeBalanceRejected(t *testing.T) {
	_, err := loadAccountBatch(filepath.Join("testdata", "bad_balance.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLoadAccountBatch_MissingFile(t *testing.T) {
	_, err := loadAccountBatch(filepath.Join("testdata", "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLoadCommand_EndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	out, err := execute(t, "--db", dbPath, "load", filepath.Join("testdata", "accounts.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "created 3 accounts")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	m, err := ledger.New(st, 1)
	require.NoError(t, err)

	acct, err := m.FindAccountByName(context.Background(), "Bob")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), acct.Balance)
}

func TestLoadCommand_DuplicateBatchIsAllOrNothing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	_, err := execute(t, "--db", dbPath, "load", filepath.Join("testdata", "accounts.cue"))
	require.NoError(t, err)

	// Second load collides on every name; nothing new may persist and the
	// original balances stay intact.
	out, err := execute(t, "--db", dbPath, "load", filepath.Join("testdata", "accounts.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "name-unique")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	n, err := store.CountAccounts(context.Background(), st.DB())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
