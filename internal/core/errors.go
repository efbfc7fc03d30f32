// Package core holds the ledger domain: entities, validation rules, the
// balance maintenance function and the error taxonomy shared by every layer.
package core

import "fmt"

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation targeting a nonexistent entity.
type NotFoundError struct {
	Kind string // "transaction", "account", "category"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ReferenceError reports a write naming an account or category that does
// not exist. References are validated eagerly so dangling foreign keys
// never enter the ledger.
type ReferenceError struct {
	Kind string
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("unknown %s reference %q", e.Kind, e.ID)
}

// ReferentialIntegrityError reports a delete blocked by transactions that
// still reference the target. The delete is a hard block, never a cascade.
type ReferentialIntegrityError struct {
	Kind string
	ID   string
	Refs int // transactions still referencing the entity
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s %q: %d transaction(s) still reference it", e.Kind, e.ID, e.Refs)
}
