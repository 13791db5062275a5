package dbpkg

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes the repositories react to.
const (
	CodeUniqueViolation           = "23505"
	CodeForeignKeyViolation       = "23503"
	CodeCheckViolation            = "23514"
	CodeInvalidTextRepresentation = "22P02"
	CodeNumericValueOutOfRange    = "22003"
	CodeSerializationFailure      = "40001"
	CodeDeadlockDetected          = "40P01"
	CodeLockNotAvailable          = "55P03"
)

// PQError returns the *pq.Error wrapped in err, if any.
func PQError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}

	return nil, false
}

// IsConflict reports whether err is a concurrency failure that the caller may retry.
func IsConflict(err error) bool {
	pqErr, ok := PQError(err)
	if !ok {
		return false
	}

	switch pqErr.Code {
	case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
		return true
	}

	return false
}

// IsOutOfRange reports whether err is a numeric overflow of a column's precision.
func IsOutOfRange(err error) bool {
	pqErr, ok := PQError(err)

	return ok && pqErr.Code == CodeNumericValueOutOfRange
}
