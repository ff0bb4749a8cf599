package service

import (
	"sync"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/events"
	"github.com/Giancarlo174/cenit/internal/infra/cache"
	"github.com/Giancarlo174/cenit/internal/infra/observability"
	"github.com/Giancarlo174/cenit/internal/port"

	"go.uber.org/zap"
)

// Workspace is the per-user state container: the session store, the
// three entity stores, the dashboard aggregator, and the change bus
// that binds them. Workspaces are constructed explicitly and injected;
// nothing here is process-global.
type Workspace struct {
	Session      *SessionStore
	Transactions *TransactionStore
	Categories   *CategoryStore
	Profile      *ProfileStore
	Dashboard    *DashboardService
	Bus          *events.Bus
}

// WorkspaceDeps are the shared collaborators each workspace is built on.
type WorkspaceDeps struct {
	Records   port.RecordStore
	Auth      port.AuthAPI
	Notifier  port.Notifier
	Metrics   *observability.Metrics
	JWTSecret string
	PageSize  int
	Logger    *zap.Logger
}

// NewWorkspace constructs and wires one workspace. Entity stores follow
// the session: they bind to the user on sign-in and reset to defaults
// when the identity goes away.
func NewWorkspace(deps WorkspaceDeps) *Workspace {
	bus := events.New()

	w := &Workspace{
		Session:      NewSessionStore(deps.Auth, deps.JWTSecret, deps.Logger),
		Transactions: NewTransactionStore(deps.Records, bus, deps.Notifier, deps.Metrics, deps.PageSize, deps.Logger),
		Categories:   NewCategoryStore(deps.Records, bus, deps.Notifier, deps.Metrics, deps.Logger),
		Profile:      NewProfileStore(deps.Records, bus, deps.Notifier, deps.Metrics, deps.Logger),
		Bus:          bus,
	}
	w.Dashboard = NewDashboardService(w.Transactions, w.Categories, w.Profile, bus, deps.Metrics, deps.Logger)

	w.Session.Subscribe(func(s domain.Session) {
		w.Transactions.SetUser(s.UserID)
		w.Categories.SetUser(s.UserID)
		w.Profile.SetUser(s.UserID)
		w.Dashboard.Invalidate()
	})

	return w
}

// WorkspaceManager keeps one workspace per authenticated user, expiring
// idle ones on a TTL.
type WorkspaceManager struct {
	mu         sync.Mutex
	workspaces *cache.InMemory[*Workspace]
	deps       WorkspaceDeps
}

// NewWorkspaceManager creates the registry. ttl bounds how long an idle
// workspace survives between requests.
func NewWorkspaceManager(deps WorkspaceDeps, workspaces *cache.InMemory[*Workspace]) *WorkspaceManager {
	return &WorkspaceManager{workspaces: workspaces, deps: deps}
}

// Get returns the workspace for a session, creating and binding it on
// first use. Each Get refreshes the TTL.
func (m *WorkspaceManager) Get(session domain.Session) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.workspaces.Get(session.UserID); ok {
		m.workspaces.Set(session.UserID, w)
		return w
	}

	w := NewWorkspace(m.deps)
	w.Session.set(session)
	m.workspaces.Set(session.UserID, w)
	m.deps.Metrics.SetWorkspacesActive(m.workspaces.Len())
	m.deps.Logger.Info("workspace created", zap.String("user_id", session.UserID))
	return w
}

// Drop removes a user's workspace, e.g. on sign-out.
func (m *WorkspaceManager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces.Delete(userID)
	m.deps.Metrics.SetWorkspacesActive(m.workspaces.Len())
}
