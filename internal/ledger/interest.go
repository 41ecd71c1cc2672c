package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/quarterwave/ledgerstone/internal/numeric"
	"github.com/quarterwave/ledgerstone/internal/store"
)

// ApplyInterestToAll credits every account with interest proportional to its
// balance, as one atomic scope. Interest is computed in exact decimal
// arithmetic as floor(balance * rate), truncated toward zero so rounding can
// never create money. Accounts whose computed interest is zero are left
// untouched and get no log entry.
//
// The unit of atomicity is the whole operation: if any balance update or any
// log insertion fails, every update in the batch rolls back, including those
// that already succeeded earlier in the scope.
func (m *Manager) ApplyInterestToAll(ctx context.Context, rate decimal.Decimal) error {
	if rate.IsNegative() {
		return newValidationError(RuleRateNonNegative,
			fmt.Sprintf("interest rate %s must not be negative", rate))
	}

	sc, err := beginScope(ctx, m.store.Begin)
	if err != nil {
		return err
	}
	defer sc.release()

	accounts, err := store.ListAccounts(ctx, sc.tx)
	if err != nil {
		return fmt.Errorf("apply interest: %w", err)
	}

	ts := m.clock.NowNanos()
	for _, a := range accounts {
		interest, err := interestFor(a.Balance, rate)
		if err != nil {
			return err
		}
		if interest == 0 {
			continue
		}
		// Overflow of balance + interest is caught before the write.
		if _, err := numeric.CheckedAdd(a.Balance, interest); err != nil {
			return err
		}

		if err := store.AdjustBalance(ctx, sc.tx, a.ID, interest); err != nil {
			if store.IsCheckViolation(err) {
				return newConstraintError(RuleBalanceNonNegative,
					fmt.Sprintf("interest update would drive account %d negative", a.ID), sc.token)
			}
			return fmt.Errorf("apply interest to %d: %w", a.ID, err)
		}

		entry := store.LogEntry{
			FromID:     store.SystemAccountID,
			ToID:       a.ID,
			Amount:     interest,
			TS:         ts,
			ScopeToken: sc.token,
		}
		if err := store.AppendLog(ctx, sc.tx, entry); err != nil {
			return newDependentStepError(RuleLogAppend,
				fmt.Sprintf("interest log append for account %d failed: %v", a.ID, err), sc.token)
		}
	}

	return sc.commit()
}

// interestFor computes floor(balance * rate) in decimal and converts the
// result to an exact int64.
func interestFor(balance int64, rate decimal.Decimal) (int64, error) {
	interest := decimal.NewFromInt(balance).Mul(rate).Floor()
	big := interest.BigInt()
	if !big.IsInt64() {
		return 0, &numeric.OutOfRangeError{
			Value:  interest.String(),
			Reason: "interest amount exceeds signed 64-bit range",
		}
	}
	return big.Int64(), nil
}
