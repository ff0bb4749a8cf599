package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/infra/observability"
	"github.com/Giancarlo174/cenit/internal/service"

	"go.uber.org/zap"
)

const testUserID = "user-1"

// fakeAuth is an AuthAPI stub. Fields configure the responses.
type fakeAuth struct {
	session *domain.AuthSession
	user    *domain.AuthUser
	err     error
}

func (f *fakeAuth) SignUp(context.Context, string, string, map[string]any) (*domain.AuthSession, error) {
	return f.session, f.err
}

func (f *fakeAuth) SignInWithPassword(context.Context, string, string) (*domain.AuthSession, error) {
	return f.session, f.err
}

func (f *fakeAuth) RefreshSession(context.Context, string) (*domain.AuthSession, error) {
	return f.session, f.err
}

func (f *fakeAuth) SignOut(context.Context, string) error { return f.err }

func (f *fakeAuth) GetUser(context.Context, string) (*domain.AuthUser, error) {
	return f.user, f.err
}

// nopNotifier swallows notifications, recording the last of each kind.
type nopNotifier struct {
	lastSuccess string
	lastError   string
}

func (n *nopNotifier) Success(msg string) { n.lastSuccess = msg }
func (n *nopNotifier) Error(msg string)   { n.lastError = msg }

// answer is a Confirmer with a fixed reply.
type answer bool

func (a answer) Confirm(context.Context, string) (bool, error) { return bool(a), nil }

// failingConfirmer rejects with an error.
type failingConfirmer struct{}

func (failingConfirmer) Confirm(context.Context, string) (bool, error) {
	return false, errors.New("confirm gate unavailable")
}

// newTestWorkspace builds a workspace over a fresh memStore, bound to
// testUserID.
func newTestWorkspace(t *testing.T) (*service.Workspace, *memStore) {
	t.Helper()
	store := newMemStore()
	w := service.NewWorkspace(service.WorkspaceDeps{
		Records:  store,
		Auth:     &fakeAuth{},
		Notifier: &nopNotifier{},
		Metrics:  observability.NewMetrics(),
		PageSize: 10,
		Logger:   zap.NewNop(),
	})
	w.Transactions.SetUser(testUserID)
	w.Categories.SetUser(testUserID)
	w.Profile.SetUser(testUserID)
	return w, store
}

// seedProfile inserts the profiles row for testUserID.
func seedProfile(t *testing.T, store *memStore, username string) {
	t.Helper()
	if _, err := store.Insert(context.Background(), "profiles", map[string]any{
		"id":       testUserID,
		"username": username,
		"role":     "user",
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}
