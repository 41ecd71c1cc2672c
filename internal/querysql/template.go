package querysql

import (
	"strings"
	"unicode"
)

// Template is a fixed write statement with named :placeholder parameters.
// Templates are declared in this package only; callers supply values, never
// statement text.
type Template struct {
	sql    string
	params map[string]colKind
}

// The write catalog. Each mutating operation the store performs has exactly
// one template here.
var (
	// InsertAccount creates one account row.
	InsertAccount = Template{
		sql: "INSERT INTO accounts (id, name, balance) VALUES (:id, :name, :balance)",
		params: map[string]colKind{
			"id":      colInteger,
			"name":    colText,
			"balance": colInteger,
		},
	}

	// AdjustBalance applies a signed delta to one account's balance.
	// The balance >= 0 CHECK constraint rejects a debit past zero durably,
	// independent of any pre-check.
	AdjustBalance = Template{
		sql: "UPDATE accounts SET balance = balance + :delta WHERE id = :id",
		params: map[string]colKind{
			"delta": colInteger,
			"id":    colInteger,
		},
	}

	// AppendLog records one completed transfer.
	AppendLog = Template{
		sql: "INSERT INTO transaction_log (from_id, to_id, amount, ts, scope_token) VALUES (:from_id, :to_id, :amount, :ts, :scope_token)",
		params: map[string]colKind{
			"from_id":     colInteger,
			"to_id":       colInteger,
			"amount":      colInteger,
			"ts":          colInteger,
			"scope_token": colText,
		},
	}

	// InsertEvent records one event. user_id and session_id accept Null.
	InsertEvent = Template{
		sql: "INSERT INTO events (id, event_type, timestamp_ns, user_id, session_id) VALUES (:id, :event_type, :timestamp_ns, :user_id, :session_id)",
		params: map[string]colKind{
			"id":           colInteger,
			"event_type":   colText,
			"timestamp_ns": colInteger,
			"user_id":      colInteger,
			"session_id":   colInteger,
		},
	}

	// UpsertCounter sets a counter to an already-computed value. The caller
	// performs the increment with checked 64-bit arithmetic before binding.
	UpsertCounter = Template{
		sql: "INSERT INTO counters (name, value) VALUES (:name, :value) ON CONFLICT(name) DO UPDATE SET value = excluded.value",
		params: map[string]colKind{
			"name":  colText,
			"value": colInteger,
		},
	}
)

// Bind resolves the template's named placeholders against values, producing
// an executable statement with positional parameters.
//
// Fails fast with *BindingError when a required placeholder is missing, a
// value's type does not match the column, or values contains a key the
// template never references. Nothing reaches the engine on failure.
func (t Template) Bind(values map[string]Value) (Statement, error) {
	var (
		sql  strings.Builder
		args []any
		seen = make(map[string]bool, len(t.params))
	)

	s := t.sql
	for i := 0; i < len(s); {
		if s[i] != ':' {
			sql.WriteByte(s[i])
			i++
			continue
		}

		j := i + 1
		for j < len(s) && isPlaceholderRune(rune(s[j])) {
			j++
		}
		name := s[i+1 : j]

		kind, ok := t.params[name]
		if !ok {
			return Statement{}, &BindingError{Placeholder: name, Message: "placeholder not declared by template"}
		}
		v, ok := values[name]
		if !ok {
			return Statement{}, &BindingError{Placeholder: name, Message: "required value missing"}
		}
		arg, err := v.param(kind)
		if err != nil {
			return Statement{}, &BindingError{Placeholder: name, Message: err.Error()}
		}

		sql.WriteByte('?')
		args = append(args, arg)
		seen[name] = true
		i = j
	}

	for name := range values {
		if !seen[name] {
			return Statement{}, &BindingError{Placeholder: name, Message: "value does not correspond to any placeholder"}
		}
	}

	return Statement{SQL: sql.String(), Args: args}, nil
}

func isPlaceholderRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
