// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// service workflows to distinguish between different failure scenarios
// without inspecting driver errors.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write collides with existing state.
// Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrUserExists is returned when registering a user id that is already
// enrolled.
var ErrUserExists = fmt.Errorf("user already exists: %w", ErrConflict)

// ErrDuplicateDecision is returned when the ledger already holds an entry
// for the (user, decision index) pair.
var ErrDuplicateDecision = fmt.Errorf("decision already recorded: %w", ErrConflict)

// ErrUserNotFound is returned when no user row matches the id.
var ErrUserNotFound = errors.New("user not found")

// ErrDecisionNotFound is returned when the ledger has no entry for the
// requested (user, decision index).
var ErrDecisionNotFound = errors.New("decision not found")

// isDuplicateKey reports whether err is a unique key violation from either
// supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Error 1062")
}
