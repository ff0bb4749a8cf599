package service

import (
	"context"
	"time"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/events"
)

// Manual ordering session for categories. The store moves through
// Browsing -> Reordering -> Committing -> Browsing; while Reordering,
// list mutations are local only and filters are suspended, so the full
// list stays stable for drag manipulation.

// StartReorder enters the reorder session, capturing the current id
// sequence as the change-detection baseline.
func (s *CategoryStore) StartReorder() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeBrowsing {
		return &domain.ErrReorderState{Op: "start reorder", Mode: string(s.mode)}
	}

	snapshot := make([]string, len(s.items))
	for i, cat := range s.items {
		snapshot[i] = cat.ID
	}
	s.orderSnapshot = snapshot
	s.mode = ModeReordering
	return nil
}

// Move relocates the element at index from to index to within the
// working order. Local only; nothing is persisted until SaveOrder.
func (s *CategoryStore) Move(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeReordering {
		return &domain.ErrReorderState{Op: "move", Mode: string(s.mode)}
	}
	if from < 0 || from >= len(s.items) || to < 0 || to >= len(s.items) {
		return &domain.ErrValidation{Errors: []string{"Índice fuera de rango"}}
	}
	if from == to {
		return nil
	}

	moved := s.items[from]
	rest := append(s.items[:from:from], s.items[from+1:]...)
	s.items = append(rest[:to:to], append([]domain.Category{moved}, rest[to:]...)...)
	return nil
}

// HasOrderChanges compares the working id sequence against the snapshot
// captured on StartReorder.
func (s *CategoryStore) HasOrderChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeReordering || len(s.items) != len(s.orderSnapshot) {
		return false
	}
	for i, cat := range s.items {
		if cat.ID != s.orderSnapshot[i] {
			return true
		}
	}
	return false
}

// CancelReorder discards local mutations by reloading the authoritative
// collection. A full reload, not a snapshot replay: the local position
// fields were never persisted.
func (s *CategoryStore) CancelReorder(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != ModeReordering {
		s.mu.Unlock()
		return &domain.ErrReorderState{Op: "cancel reorder", Mode: string(s.mode)}
	}
	s.mode = ModeBrowsing
	s.orderSnapshot = nil
	s.mu.Unlock()

	s.FetchAll(ctx)
	return nil
}

// SaveOrder commits the working order: position = index+1 persisted as
// a strictly sequential chain of single-row updates (the backend has no
// multi-row atomicity). On a mid-chain failure the collection is
// reloaded to resynchronize; already-applied updates are not rolled
// back. On success the store refetches for authoritative positions and
// the dashboard memo is invalidated through the bus.
func (s *CategoryStore) SaveOrder(ctx context.Context) error {
	ctx, span := catTracer.Start(ctx, "CategoryStore.SaveOrder")
	defer span.End()

	s.mu.Lock()
	if s.mode != ModeReordering {
		s.mu.Unlock()
		return &domain.ErrReorderState{Op: "save order", Mode: string(s.mode)}
	}
	s.mode = ModeCommitting
	ids := make([]string, len(s.items))
	for i, cat := range s.items {
		ids[i] = cat.ID
	}
	s.mu.Unlock()

	start := time.Now()
	for index, id := range ids {
		if _, err := s.records.Update(ctx, "categories", id, map[string]any{"position": index + 1}); err != nil {
			s.recordError(err)
			s.mu.Lock()
			s.mode = ModeBrowsing
			s.orderSnapshot = nil
			s.mu.Unlock()
			s.FetchAll(ctx)
			return err
		}
	}
	s.metrics.RecordStoreOp("categories.save_order", time.Since(start))

	s.mu.Lock()
	s.mode = ModeBrowsing
	s.orderSnapshot = nil
	s.mu.Unlock()

	s.FetchAll(ctx)
	s.bus.Publish(events.Change{Entity: events.EntityCategories, Action: events.ActionReordered})
	s.notifier.Success("Orden guardado exitosamente")
	return nil
}
