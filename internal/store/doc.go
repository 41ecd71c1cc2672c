// Package store provides SQLite-backed durable storage for the ledger.
//
// Tables:
//   - accounts: id (snowflake), NFC-normalized unique name, non-negative balance
//   - transaction_log: completed transfers (from, to, amount, nanosecond ts)
//   - events: arbitrary events with exact 64-bit timestamp/user/session fields
//   - counters: named 64-bit accumulators
//
// # Critical Patterns
//
// Exact-integer storage affinity: every 64-bit column is declared INTEGER.
// SQLite stores those as 8-byte signed integers, so the full int64 range
// round-trips bit-exactly. Retrieval scans through numeric.DecodeValue, which
// rejects any value that degraded to REAL storage instead of rounding it.
//
// Durable constraints close validation races: balance >= 0 and amount > 0 are
// CHECK constraints, account names are UNIQUE. A write that violates them
// aborts the enclosing transaction regardless of what a pre-check concluded.
//
// Statement discipline: every statement that carries a data value is built by
// internal/querysql; values are bound as parameters, never interpolated.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//   - single connection: SQLite supports one writer at a time
package store
