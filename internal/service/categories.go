package service

import (
	"context"
	"encoding/json"
	"sort"
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

var catTracer = otel.Tracer("service/categories")

// OrderingMode is the reorder session state of the category store.
type OrderingMode string

const (
	ModeBrowsing   OrderingMode = "browsing"
	ModeReordering OrderingMode = "reordering"
	ModeCommitting OrderingMode = "committing"
)

// CategoryStore owns one user's category collection, including the
// manual ordering session (see categories_reorder.go).
type CategoryStore struct {
	mu       sync.Mutex
	state    storeState
	userID   string
	items    []domain.Category
	lastErr  string
	mutating bool

	search        string
	sortByTotal   bool
	sortAsc       bool
	mode          OrderingMode
	orderSnapshot []string

	records  port.RecordStore
	bus      *events.Bus
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewCategoryStore creates an uninitialized category store.
func NewCategoryStore(records port.RecordStore, bus *events.Bus, notifier port.Notifier, metrics *observability.Metrics, logger *zap.Logger) *CategoryStore {
	return &CategoryStore{
		mode:     ModeBrowsing,
		records:  records,
		bus:      bus,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// SetUser binds the store to a user and resets all state.
func (s *CategoryStore) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.resetLocked()
}

func (s *CategoryStore) resetLocked() {
	s.state = stateUninitialized
	s.items = nil
	s.lastErr = ""
	s.search = ""
	s.sortByTotal = false
	s.sortAsc = false
	s.mode = ModeBrowsing
	s.orderSnapshot = nil
}

// State returns the lifecycle state.
func (s *CategoryStore) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.String()
}

// Mode returns the current ordering mode.
func (s *CategoryStore) Mode() OrderingMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Error returns the last recorded error message.
func (s *CategoryStore) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// All returns a copy of the current collection.
func (s *CategoryStore) All() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Category, len(s.items))
	copy(out, s.items)
	return out
}

// EnsureLoaded fetches the collection once per user binding.
func (s *CategoryStore) EnsureLoaded(ctx context.Context) {
	s.mu.Lock()
	if s.userID == "" || s.state != stateUninitialized {
		s.mu.Unlock()
		return
	}
	s.state = stateLoading
	s.mu.Unlock()

	s.FetchAll(ctx)
}

// FetchAll replaces the collection with the backend's rows, ordered by
// position. Failures degrade to the empty state, never re-thrown.
func (s *CategoryStore) FetchAll(ctx context.Context) {
	ctx, span := catTracer.Start(ctx, "CategoryStore.FetchAll")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		return
	}

	start := time.Now()
	raw, err := s.records.List(ctx, "categories", port.Query{
		Filters: map[string]any{"user_id": userID},
		OrderBy: &port.Order{Column: "position", Ascending: true},
	})
	s.metrics.RecordStoreOp("categories.fetch", time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateReady
	if err != nil {
		s.lastErr = err.Error()
		s.items = nil
		s.metrics.IncrRecordStoreError("categories")
		s.logger.Warn("categories fetch failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	var rows []domain.Category
	if err := json.Unmarshal(raw, &rows); err != nil {
		s.lastErr = err.Error()
		s.items = nil
		s.logger.Warn("categories decode failed", zap.Error(err))
		return
	}

	s.lastErr = ""
	s.items = rows
	s.bus.Publish(events.Change{Entity: events.EntityCategories, Action: events.ActionReloaded})
}

func (s *CategoryStore) beginMutation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutating {
		return &domain.ErrOperationPending{Store: "categories"}
	}
	s.mutating = true
	return nil
}

func (s *CategoryStore) endMutation() {
	s.mu.Lock()
	s.mutating = false
	s.mu.Unlock()
}

// Create inserts a category at position 1: every existing category is
// shifted down by one single-row update, then the new row is inserted.
// Not atomic; a mid-sequence failure is reconciled by refetching.
func (s *CategoryStore) Create(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategoryStore.Create")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		s.logger.Warn("category create while unauthenticated")
		return nil, nil
	}

	if err := domain.ValidateCategoryInput(in); err != nil {
		return nil, err
	}
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	s.mu.Lock()
	existing := make([]domain.Category, len(s.items))
	copy(existing, s.items)
	s.mu.Unlock()

	start := time.Now()
	for _, cat := range existing {
		if _, err := s.records.Update(ctx, "categories", cat.ID, map[string]any{"position": cat.Position + 1}); err != nil {
			s.recordError(err)
			s.FetchAll(ctx)
			return nil, err
		}
	}

	raw, err := s.records.Insert(ctx, "categories", map[string]any{
		"user_id":  userID,
		"name":     strings.TrimSpace(in.Name),
		"type":     string(in.Type),
		"position": 1,
	})
	s.metrics.RecordStoreOp("categories.create", time.Since(start))
	if err != nil {
		s.recordError(err)
		s.FetchAll(ctx)
		return nil, err
	}

	var cat domain.Category
	if err := json.Unmarshal(raw, &cat); err != nil {
		s.recordError(err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.items {
		s.items[i].Position++
	}
	s.items = append([]domain.Category{cat}, s.items...)
	s.lastErr = ""
	s.mu.Unlock()

	s.bus.Publish(events.Change{Entity: events.EntityCategories, Action: events.ActionCreated, ID: cat.ID})
	s.notifier.Success("Categoría creada exitosamente")
	return &cat, nil
}

// Update renames or retypes a category. Duplicate name+type pairs
// surface as a conflict.
func (s *CategoryStore) Update(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	ctx, span := catTracer.Start(ctx, "CategoryStore.Update")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		s.logger.Warn("category update while unauthenticated")
		return nil, nil
	}

	if err := domain.ValidateCategoryInput(in); err != nil {
		return nil, err
	}
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	start := time.Now()
	raw, err := s.records.Update(ctx, "categories", id, map[string]any{
		"name": strings.TrimSpace(in.Name),
		"type": string(in.Type),
	})
	s.metrics.RecordStoreOp("categories.update", time.Since(start))
	if err != nil {
		s.recordError(err)
		return nil, err
	}

	var cat domain.Category
	if err := json.Unmarshal(raw, &cat); err != nil {
		s.recordError(err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = cat
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.bus.Publish(events.Change{Entity: events.EntityCategories, Action: events.ActionUpdated, ID: id})
	s.notifier.Success("Categoría actualizada exitosamente")
	return &cat, nil
}

// Remove deletes one category after the confirmation gate accepts.
// A declined confirmation performs zero network calls.
func (s *CategoryStore) Remove(ctx context.Context, id string, confirm port.Confirmer) error {
	ctx, span := catTracer.Start(ctx, "CategoryStore.Remove")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	name := id
	for _, cat := range s.items {
		if cat.ID == id {
			name = cat.Name
			break
		}
	}
	s.mu.Unlock()
	if userID == "" {
		s.logger.Warn("category remove while unauthenticated")
		return nil
	}

	ok, err := confirm.Confirm(ctx, "¿Eliminar la categoría \""+name+"\"?")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := s.beginMutation(); err != nil {
		return err
	}
	defer s.endMutation()

	start := time.Now()
	err = s.records.Delete(ctx, "categories", id)
	s.metrics.RecordStoreOp("categories.delete", time.Since(start))
	if err != nil {
		s.recordError(err)
		return err
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, cat := range s.items {
		if cat.ID != id {
			kept = append(kept, cat)
		}
	}
	s.items = kept
	s.lastErr = ""
	s.mu.Unlock()

	s.bus.Publish(events.Change{Entity: events.EntityCategories, Action: events.ActionDeleted, ID: id})
	s.notifier.Success("Categoría eliminada exitosamente")
	return nil
}

func (s *CategoryStore) recordError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.metrics.IncrRecordStoreError("categories")
	s.notifier.Error(err.Error())
}

// SetSearch sets the name search term (suspended while reordering).
func (s *CategoryStore) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
}

// SetSortByTotal toggles ordering by accumulated amount instead of the
// persisted position.
func (s *CategoryStore) SetSortByTotal(enabled, ascending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortByTotal = enabled
	s.sortAsc = ascending
}

// Ordered returns the canonical listing: while reordering, the raw
// working order with filters suspended; with an amount sort active,
// ordered by the computed per-category totals; otherwise by persisted
// position ascending. totals maps category id to accumulated amount
// and may be nil.
func (s *CategoryStore) Ordered(totals map[string]float64) []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Category, len(s.items))
	copy(out, s.items)

	if s.mode != ModeBrowsing {
		return out
	}

	if s.search != "" {
		term := strings.ToLower(strings.TrimSpace(s.search))
		kept := out[:0]
		for _, cat := range out {
			if strings.Contains(strings.ToLower(cat.Name), term) {
				kept = append(kept, cat)
			}
		}
		out = kept
	}

	if s.sortByTotal && totals != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if s.sortAsc {
				return totals[out[i].ID] < totals[out[j].ID]
			}
			return totals[out[i].ID] > totals[out[j].ID]
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Position < out[j].Position
		})
	}
	return out
}
