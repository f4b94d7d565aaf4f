package database

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a uniqueness or foreign key violation.
	ErrConflict = errors.New("constraint violation")

	// ErrClosed indicates the database has been closed.
	ErrClosed = errors.New("database is closed")
)

// IsConstraintError reports whether err is a SQLite constraint violation.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "FOREIGN KEY constraint")
}
