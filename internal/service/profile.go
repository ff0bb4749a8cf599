package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/events"
	"github.com/Giancarlo174/cenit/internal/infra/observability"
	"github.com/Giancarlo174/cenit/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var profileTracer = otel.Tracer("service/profile")

// ProfileStore owns the user's profile row (one-to-one with the session).
type ProfileStore struct {
	mu      sync.Mutex
	state   storeState
	userID  string
	profile *domain.Profile
	lastErr string

	records  port.RecordStore
	bus      *events.Bus
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewProfileStore creates an uninitialized profile store.
func NewProfileStore(records port.RecordStore, bus *events.Bus, notifier port.Notifier, metrics *observability.Metrics, logger *zap.Logger) *ProfileStore {
	return &ProfileStore{
		records:  records,
		bus:      bus,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// SetUser binds the store to a user and resets state.
func (s *ProfileStore) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.state = stateUninitialized
	s.profile = nil
	s.lastErr = ""
}

// Current returns the loaded profile, nil before load or after failure.
func (s *ProfileStore) Current() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Username returns the loaded username, empty when unknown.
func (s *ProfileStore) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.Username
}

// Error returns the last recorded error message.
func (s *ProfileStore) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// EnsureLoaded fetches the profile once per user binding.
func (s *ProfileStore) EnsureLoaded(ctx context.Context) {
	s.mu.Lock()
	if s.userID == "" || s.state != stateUninitialized {
		s.mu.Unlock()
		return
	}
	s.state = stateLoading
	s.mu.Unlock()

	s.Fetch(ctx)
}

// Fetch loads the profile row. The profile id equals the auth user id.
// Failures degrade to a nil profile, never re-thrown.
func (s *ProfileStore) Fetch(ctx context.Context) {
	ctx, span := profileTracer.Start(ctx, "ProfileStore.Fetch")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		return
	}

	start := time.Now()
	raw, err := s.records.GetByID(ctx, "profiles", userID)
	s.metrics.RecordStoreOp("profile.fetch", time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateReady
	if err != nil {
		s.lastErr = err.Error()
		s.profile = nil
		s.metrics.IncrRecordStoreError("profiles")
		s.logger.Warn("profile fetch failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		s.lastErr = err.Error()
		s.profile = nil
		return
	}
	s.lastErr = ""
	s.profile = &p
}

// Update changes the username after validation.
func (s *ProfileStore) Update(ctx context.Context, in domain.ProfileInput) (*domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileStore.Update")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		s.logger.Warn("profile update while unauthenticated")
		return nil, nil
	}

	if err := domain.ValidateProfileInput(in); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := s.records.Update(ctx, "profiles", userID, map[string]any{
		"username": strings.TrimSpace(in.Username),
	})
	s.metrics.RecordStoreOp("profile.update", time.Since(start))
	if err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.metrics.IncrRecordStoreError("profiles")
		s.notifier.Error(err.Error())
		return nil, err
	}

	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.profile = &p
	s.lastErr = ""
	s.mu.Unlock()

	s.bus.Publish(events.Change{Entity: events.EntityProfile, Action: events.ActionUpdated, ID: userID})
	s.notifier.Success("Perfil actualizado correctamente")
	return &p, nil
}
