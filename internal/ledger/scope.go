package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// scopeState is the lifecycle state of a transactional scope.
type scopeState int

const (
	scopeIdle scopeState = iota
	scopeActive
	scopeCommitted
	scopeRolledBack
)

func (s scopeState) String() string {
	switch s {
	case scopeIdle:
		return "idle"
	case scopeActive:
		return "active"
	case scopeCommitted:
		return "committed"
	case scopeRolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("scopeState(%d)", int(s))
	}
}

// scope is one transactional unit of work: Idle → Active → {Committed |
// RolledBack}. Terminal states are final; a scope is not reused.
type scope struct {
	tx    *sql.Tx
	state scopeState
	token string
}

// beginScope opens a transaction and moves the scope to Active.
func beginScope(ctx context.Context, begin func(context.Context) (*sql.Tx, error)) (*scope, error) {
	s := &scope{state: scopeIdle, token: uuid.NewString()}
	tx, err := begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin scope: %w", err)
	}
	s.tx = tx
	s.state = scopeActive
	return s, nil
}

// commit moves an Active scope to Committed. Calling it in any other state
// is a programming error and fails without touching the transaction.
func (s *scope) commit() error {
	if s.state != scopeActive {
		return fmt.Errorf("commit scope in state %s", s.state)
	}
	if err := s.tx.Commit(); err != nil {
		s.state = scopeRolledBack
		return fmt.Errorf("commit scope: %w", err)
	}
	s.state = scopeCommitted
	return nil
}

// release rolls back the scope unless it already reached a terminal state.
// Deferred on every operation so no exit path leaks an open transaction.
func (s *scope) release() {
	if s.state != scopeActive {
		return
	}
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.WithFields(log.Fields{"scope": s.token, "err": err}).
			Warn("failed to roll back transactional scope")
	}
	s.state = scopeRolledBack
}
