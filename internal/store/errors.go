package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ErrNotFound reports that a lookup matched no row.
var ErrNotFound = errors.New("store: not found")

// IsUniqueViolation returns true if err is a SQLite UNIQUE constraint
// failure (duplicate account name, duplicate id).
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsCheckViolation returns true if err is a SQLite CHECK constraint failure
// (balance driven negative, non-positive log amount).
func IsCheckViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintCheck
	}
	return false
}

// IsForeignKeyViolation returns true if err is a SQLite FOREIGN KEY
// constraint failure (log entry referencing a missing account).
func IsForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
