// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service
// layer from concrete implementations.
package port

import (
	"context"
	"encoding/json"

	"github.com/Giancarlo174/cenit/internal/domain"
)

// Order specifies server-side ordering of a list request.
type Order struct {
	Column    string
	Ascending bool
}

// Query narrows a list request. A nil filter value means "IS NULL",
// not "equals null".
type Query struct {
	Filters map[string]any
	OrderBy *Order
}

// RecordStore is the generic record store collaborator backing all
// persistence. Implementations return raw JSON rows; callers decode
// into their own row types. The server assigns ids and created
// timestamps on insert.
type RecordStore interface {
	List(ctx context.Context, table string, q Query) (json.RawMessage, error)
	GetByID(ctx context.Context, table, id string) (json.RawMessage, error)
	Insert(ctx context.Context, table string, record map[string]any) (json.RawMessage, error)
	Update(ctx context.Context, table, id string, record map[string]any) (json.RawMessage, error)
	Delete(ctx context.Context, table, id string) error
}

// AuthAPI is the authentication collaborator (hosted auth backend).
type AuthAPI interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*domain.AuthSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error)
	RefreshSession(ctx context.Context, refreshToken string) (*domain.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*domain.AuthUser, error)
}

// Confirmer is the async yes/no gate consulted before destructive
// operations. Returning false aborts the operation before any mutation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Notifier presents fire-and-forget success/error feedback. Purely
// informational; failures to notify never affect correctness.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
