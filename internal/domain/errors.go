package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the application.
// The record store adapter classifies backend failures into these kinds
// so nothing above it ever matches on message substrings.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates user input violated field constraints. It is
// raised before any network call and carries every violated rule.
type ErrValidation struct {
	Errors []string
}

func (e *ErrValidation) Error() string {
	return strings.Join(e.Errors, ", ")
}

// ErrNotConfigured indicates the backend is missing a table or column.
// Fatal configuration problem; surfaced verbatim, never retried.
type ErrNotConfigured struct {
	Table string
}

func (e *ErrNotConfigured) Error() string {
	return fmt.Sprintf("Tabla %q no configurada en Supabase", e.Table)
}

// ErrConflict indicates a uniqueness violation, e.g. a duplicate
// category name+type pair.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrUnauthenticated indicates invalid credentials or a missing session.
type ErrUnauthenticated struct {
	Message string
}

func (e *ErrUnauthenticated) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Usuario no autenticado"
}

// ErrOperationPending indicates a mutation was rejected because the
// same store already has one in flight (rapid duplicate submit guard).
type ErrOperationPending struct {
	Store string
}

func (e *ErrOperationPending) Error() string {
	return fmt.Sprintf("operación en curso en %s, intenta de nuevo", e.Store)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrReorderState indicates a reorder operation was attempted in the
// wrong ordering mode (e.g. saving without entering reorder first).
type ErrReorderState struct {
	Op   string
	Mode string
}

func (e *ErrReorderState) Error() string {
	return fmt.Sprintf("cannot %s while in %s mode", e.Op, e.Mode)
}
