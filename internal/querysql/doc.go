// Package querysql builds parameterized SQL statements for the ledger store.
//
// The package exposes one constructor per logical operation (lookup-by-field,
// delete-by-field, pattern-search, range-query) plus named-placeholder
// templates for the store's fixed write statements. There is no "build
// arbitrary SQL from a string" entry point: injection safety is enforced by
// structure, not convention.
//
// # Critical Patterns
//
// Values are ALWAYS bound as parameters, never interpolated into statement
// text. A value of `' OR '1'='1` is data with exactly that content.
//
// Identifiers (tables, columns) come from a compiled catalog. A caller cannot
// route an untrusted string into an identifier position; unknown names fail
// with *BindingError before any statement reaches the engine.
//
// LIKE metacharacters in search values are escaped (ESCAPE '\') so they match
// literally unless the caller explicitly asks for wildcard semantics.
//
// Every SELECT carries an ORDER BY on the table's primary key for
// deterministic results.
package querysql
