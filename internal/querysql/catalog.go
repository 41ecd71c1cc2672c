package querysql

import (
	"sort"
	"strings"
)

// colKind is the storage affinity a column was declared with.
type colKind int

const (
	// colInteger is SQLite's exact 8-byte signed integer storage class.
	// Every 64-bit ledger value (balances, nanosecond timestamps, snowflake
	// ids, counters) lives in a colInteger column.
	colInteger colKind = iota

	// colText holds untrusted string data (display names, event types).
	colText
)

// tableSpec describes one catalog table: its primary key (used as the
// deterministic ORDER BY key) and the affinity of each column.
type tableSpec struct {
	pk      string
	columns map[string]colKind
}

// catalog is the closed set of tables and columns statements may reference.
// Identifier positions in generated SQL are filled only from here.
var catalog = map[string]tableSpec{
	"accounts": {
		pk: "id",
		columns: map[string]colKind{
			"id":      colInteger,
			"name":    colText,
			"balance": colInteger,
		},
	},
	"transaction_log": {
		pk: "id",
		columns: map[string]colKind{
			"id":          colInteger,
			"from_id":     colInteger,
			"to_id":       colInteger,
			"amount":      colInteger,
			"ts":          colInteger,
			"scope_token": colText,
		},
	},
	"events": {
		pk: "id",
		columns: map[string]colKind{
			"id":           colInteger,
			"event_type":   colText,
			"timestamp_ns": colInteger,
			"user_id":      colInteger,
			"session_id":   colInteger,
		},
	},
	"counters": {
		pk: "name",
		columns: map[string]colKind{
			"name":  colText,
			"value": colInteger,
		},
	},
}

// resolve validates a (table, field) pair against the catalog.
func resolve(table, field string) (tableSpec, colKind, error) {
	spec, ok := catalog[table]
	if !ok {
		return tableSpec{}, 0, &BindingError{Placeholder: table, Message: "unknown table"}
	}
	kind, ok := spec.columns[field]
	if !ok {
		return tableSpec{}, 0, &BindingError{Placeholder: table + "." + field, Message: "unknown column"}
	}
	return spec, kind, nil
}

// selectList returns the table's column names, sorted for deterministic
// statement text.
func selectList(spec tableSpec) string {
	cols := make([]string, 0, len(spec.columns))
	for name := range spec.columns {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return strings.Join(cols, ", ")
}
