package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quarterwave/ledgerstone/internal/numeric"
)

// Value is a typed parameter for a statement. The set of implementations is
// closed: String, Int64, Null. Values are always bound through driver
// parameters, never written into statement text.
type Value interface {
	param(kind colKind) (any, error)
}

// String is an untrusted text value. Quotes, backslashes, semicolons and
// wildcard characters inside it are data, not syntax.
type String string

// Int64 is an exact 64-bit integer value.
type Int64 int64

// Null binds SQL NULL (used for optional event fields).
type Null struct{}

func (s String) param(kind colKind) (any, error) {
	if kind != colText {
		return nil, fmt.Errorf("string value for integer column")
	}
	return string(s), nil
}

func (i Int64) param(kind colKind) (any, error) {
	if kind != colInteger {
		return nil, fmt.Errorf("integer value for text column")
	}
	return numeric.Encode(int64(i)), nil
}

func (Null) param(colKind) (any, error) { return nil, nil }

// BindingError reports a malformed parameter mapping or an identifier outside
// the catalog. It always fails before any statement reaches the engine.
type BindingError struct {
	Placeholder string
	Message     string
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	return fmt.Sprintf("binding %q: %s", e.Placeholder, e.Message)
}

// IsBindingError returns true if err is (or wraps) a BindingError.
func IsBindingError(err error) bool {
	var be *BindingError
	return errors.As(err, &be)
}

// Statement is an executable parameterized statement.
type Statement struct {
	SQL  string
	Args []any
}

// LookupByField builds a SELECT matching rows whose field equals v exactly.
func LookupByField(table, field string, v Value) (Statement, error) {
	spec, kind, err := resolve(table, field)
	if err != nil {
		return Statement{}, err
	}
	arg, err := v.param(kind)
	if err != nil {
		return Statement{}, &BindingError{Placeholder: table + "." + field, Message: err.Error()}
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s ASC",
		selectList(spec), table, field, spec.pk)
	return Statement{SQL: sql, Args: []any{arg}}, nil
}

// DeleteByField builds a DELETE removing rows whose field equals v exactly.
func DeleteByField(table, field string, v Value) (Statement, error) {
	_, kind, err := resolve(table, field)
	if err != nil {
		return Statement{}, err
	}
	arg, err := v.param(kind)
	if err != nil {
		return Statement{}, &BindingError{Placeholder: table + "." + field, Message: err.Error()}
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, field)
	return Statement{SQL: sql, Args: []any{arg}}, nil
}

// PatternSearch builds a substring search over a text field.
//
// When wildcard is false (the default for untrusted input), LIKE
// metacharacters in needle are escaped so they match literally: a needle of
// "100%" matches only names containing the four characters `100%`. When
// wildcard is true the caller has explicitly requested LIKE semantics and
// needle is bound as a raw pattern (still as a parameter).
func PatternSearch(table, field, needle string, wildcard bool) (Statement, error) {
	spec, kind, err := resolve(table, field)
	if err != nil {
		return Statement{}, err
	}
	if kind != colText {
		return Statement{}, &BindingError{Placeholder: table + "." + field, Message: "pattern search requires a text column"}
	}

	pattern := needle
	if !wildcard {
		pattern = "%" + EscapeLike(needle) + "%"
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIKE ? ESCAPE '\\' ORDER BY %s ASC",
		selectList(spec), table, field, spec.pk)
	return Statement{SQL: sql, Args: []any{pattern}}, nil
}

// RangeQuery builds a SELECT for rows whose integer field lies in the closed
// interval [lo, hi]. Bounds are compared in the native integer domain, so
// values one unit apart are distinguishable.
func RangeQuery(table, field string, lo, hi int64) (Statement, error) {
	spec, kind, err := resolve(table, field)
	if err != nil {
		return Statement{}, err
	}
	if kind != colInteger {
		return Statement{}, &BindingError{Placeholder: table + "." + field, Message: "range query requires an integer column"}
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s >= ? AND %s <= ? ORDER BY %s ASC, %s ASC",
		selectList(spec), table, field, field, field, spec.pk)
	return Statement{SQL: sql, Args: []any{numeric.Encode(lo), numeric.Encode(hi)}}, nil
}

// EscapeLike escapes LIKE metacharacters (%, _) and the escape character
// itself so a value matches literally under ESCAPE '\'.
func EscapeLike(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
