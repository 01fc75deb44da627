package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyErr reports whether err is a unique-constraint violation.
// gorm only translates driver errors into ErrDuplicatedKey when the dialect
// opts in, so the message shapes of the supported dialects are matched
// directly.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"): // sqlite
	case strings.Contains(msg, "duplicate key value violates unique constraint"): // postgres
	case strings.Contains(msg, "Error 1062"): // mysql
	default:
		return false
	}
	return true
}
