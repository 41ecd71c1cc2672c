// Package harness runs declarative ledger scenarios for conformance testing.
//
// A scenario is a YAML file with three sections: accounts to create up
// front, a flow of operations with expected outcomes, and assertions on
// the final state. Each run executes against a fresh temporary store
// with a deterministic clock, and produces a trace that can be compared
// against a golden file.
//
// Accounts are referenced by name throughout, never by id: ids are
// generated per run and would make traces nondeterministic.
package harness
