// Package ledger implements the transaction manager: every mutation runs
// inside a transactional scope that either commits all of its effects or
// rolls all of them back.
//
// # Scope lifecycle
//
// A scope moves Idle → Active → {Committed | RolledBack}. Terminal states are
// final; a scope is never reused. Every exit path releases the scope, and the
// deferred rollback is a no-op after commit.
//
// # Ordering rule
//
// All preconditions for an operation are validated before any durable
// mutation is issued. The durable CHECK and UNIQUE constraints then reclose
// the validation gap at write time, so a failure between mutation and
// validation cannot leave the ledger inconsistent.
//
// # Failure semantics
//
// Any error inside an active scope rolls back the whole scope before
// propagating as a typed *Error. This covers validation results, constraint
// rejections, and dependent steps such as the log insert. No partial effect
// is observable once the failing call returns.
package ledger
