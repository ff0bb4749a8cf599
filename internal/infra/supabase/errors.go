package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Giancarlo174/cenit/internal/domain"

	"github.com/sony/gobreaker"
)

// statusError preserves the HTTP status and the PostgREST error body so
// classification can use the structured code instead of prose.
type statusError struct {
	Status int
	Code   string // PostgreSQL error code, e.g. 42P01, 23505
	Msg    string
	Table  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase returned status %d (code=%s): %s", e.Status, e.Code, e.Msg)
}

// postgrestError is the JSON error envelope PostgREST responds with.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func newStatusError(status int, body []byte) error {
	se := &statusError{Status: status, Msg: string(body)}
	var pe postgrestError
	if err := json.Unmarshal(body, &pe); err == nil {
		se.Code = pe.Code
		if pe.Message != "" {
			se.Msg = pe.Message
		}
	}
	return se
}

// PostgreSQL error codes the stores care about.
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
	pgUniqueViolation = "23505"
)

// classifyError maps a raw backend failure to a typed domain error.
// Primary signal is the structured PostgreSQL code; the message
// substrings are kept as a fallback for proxies that strip the
// envelope.
func classifyError(table string, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.Code == pgUndefinedTable || se.Code == pgUndefinedColumn,
			strings.Contains(se.Msg, "does not exist"):
			return &domain.ErrNotConfigured{Table: table}
		case se.Code == pgUniqueViolation,
			strings.Contains(se.Msg, "duplicate key"):
			return &domain.ErrConflict{Message: se.Msg}
		}
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: "supabase/" + table}
	}

	return &domain.ErrExternalService{Service: "supabase/" + table, Err: err}
}
