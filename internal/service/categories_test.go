package service_test

import (
	"context"
	"sort"
	"testing"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/service"
)

func mustCreateCat(t *testing.T, w *service.Workspace, name string, typ domain.TransactionType) domain.Category {
	t.Helper()
	cat, err := w.Categories.Create(context.Background(), domain.CategoryInput{Name: name, Type: typ})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	if cat == nil {
		t.Fatalf("create category %q returned nil", name)
	}
	return *cat
}

func positionsOf(cats []domain.Category) []int {
	out := make([]int, len(cats))
	for i, c := range cats {
		out[i] = c.Position
	}
	return out
}

func TestCategoryStore_CreateInsertsAtPositionOne(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	first := mustCreateCat(t, w, "Comida", domain.TypeExpense)
	second := mustCreateCat(t, w, "Transporte", domain.TypeExpense)
	third := mustCreateCat(t, w, "Salario", domain.TypeIncome)

	w.Categories.FetchAll(ctx)
	byID := map[string]int{}
	for _, c := range w.Categories.All() {
		byID[c.ID] = c.Position
	}

	// Two existing at 1 and 2: the new one lands at 1, they shift to 2 and 3.
	if byID[third.ID] != 1 || byID[second.ID] != 2 || byID[first.ID] != 3 {
		t.Errorf("expected positions third=1 second=2 first=3, got %v", byID)
	}
}

func TestCategoryStore_DuplicateNameSurfacesConflict(t *testing.T) {
	w, store := newTestWorkspace(t)
	mustCreateCat(t, w, "Comida", domain.TypeExpense)

	store.FailNext = &domain.ErrConflict{Message: "Ya existe una categoría con ese nombre y tipo"}
	_, err := w.Categories.Create(context.Background(), domain.CategoryInput{Name: "Comida", Type: domain.TypeExpense})
	if _, ok := err.(*domain.ErrConflict); !ok {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCategoryStore_RemoveDeclinedPerformsNoNetworkCalls(t *testing.T) {
	w, store := newTestWorkspace(t)
	cat := mustCreateCat(t, w, "Comida", domain.TypeExpense)
	before := store.Calls

	if err := w.Categories.Remove(context.Background(), cat.ID, answer(false)); err != nil {
		t.Fatalf("declined remove should not error: %v", err)
	}
	if store.Calls != before {
		t.Errorf("expected zero network calls on declined confirm, got %d", store.Calls-before)
	}
	if len(w.Categories.All()) != 1 {
		t.Error("expected collection unchanged after declined remove")
	}
}

func TestCategoryStore_ReorderLifecycle(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	mustCreateCat(t, w, "A", domain.TypeExpense)
	mustCreateCat(t, w, "B", domain.TypeExpense)
	mustCreateCat(t, w, "C", domain.TypeExpense)
	w.Categories.FetchAll(ctx)

	if w.Categories.Mode() != service.ModeBrowsing {
		t.Fatalf("expected browsing mode, got %s", w.Categories.Mode())
	}
	if err := w.Categories.Move(0, 1); err == nil {
		t.Error("move outside reorder mode must fail")
	}
	if err := w.Categories.SaveOrder(ctx); err == nil {
		t.Error("save outside reorder mode must fail")
	}

	if err := w.Categories.StartReorder(); err != nil {
		t.Fatalf("start reorder: %v", err)
	}
	if w.Categories.HasOrderChanges() {
		t.Error("no changes right after entering reorder mode")
	}

	if err := w.Categories.Move(0, 2); err != nil {
		t.Fatalf("move: %v", err)
	}
	if !w.Categories.HasOrderChanges() {
		t.Error("expected order changes after a move")
	}
}

func TestCategoryStore_SaveOrderPersistsDensePermutation(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D"} {
		mustCreateCat(t, w, name, domain.TypeExpense)
	}
	w.Categories.FetchAll(ctx)

	if err := w.Categories.StartReorder(); err != nil {
		t.Fatalf("start reorder: %v", err)
	}
	if err := w.Categories.Move(3, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := w.Categories.Move(1, 2); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := w.Categories.SaveOrder(ctx); err != nil {
		t.Fatalf("save order: %v", err)
	}

	if w.Categories.Mode() != service.ModeBrowsing {
		t.Errorf("expected browsing mode after save, got %s", w.Categories.Mode())
	}

	positions := positionsOf(w.Categories.All())
	sort.Ints(positions)
	for i, p := range positions {
		if p != i+1 {
			t.Fatalf("positions must be a dense permutation of 1..N, got %v", positions)
		}
	}
}

func TestCategoryStore_SaveOrderFailureResynchronizes(t *testing.T) {
	w, store := newTestWorkspace(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		mustCreateCat(t, w, name, domain.TypeExpense)
	}
	w.Categories.FetchAll(ctx)

	if err := w.Categories.StartReorder(); err != nil {
		t.Fatalf("start reorder: %v", err)
	}
	if err := w.Categories.Move(0, 2); err != nil {
		t.Fatalf("move: %v", err)
	}

	store.FailNext = &domain.ErrExternalService{Service: "supabase/categories"}
	if err := w.Categories.SaveOrder(ctx); err == nil {
		t.Fatal("expected save order to surface the failure")
	}

	// Back in browsing mode with the authoritative collection reloaded.
	if w.Categories.Mode() != service.ModeBrowsing {
		t.Errorf("expected browsing mode after failed save, got %s", w.Categories.Mode())
	}
	if len(w.Categories.All()) != 3 {
		t.Errorf("expected reloaded collection of 3, got %d", len(w.Categories.All()))
	}
}

func TestCategoryStore_CancelReorderReloads(t *testing.T) {
	w, store := newTestWorkspace(t)
	ctx := context.Background()

	mustCreateCat(t, w, "A", domain.TypeExpense)
	mustCreateCat(t, w, "B", domain.TypeExpense)
	w.Categories.FetchAll(ctx)

	if err := w.Categories.StartReorder(); err != nil {
		t.Fatalf("start reorder: %v", err)
	}
	if err := w.Categories.Move(0, 1); err != nil {
		t.Fatalf("move: %v", err)
	}

	before := store.Calls
	if err := w.Categories.CancelReorder(ctx); err != nil {
		t.Fatalf("cancel reorder: %v", err)
	}
	if store.Calls != before+1 {
		t.Errorf("cancel must reload from the backend, got %d calls", store.Calls-before)
	}
	if w.Categories.Mode() != service.ModeBrowsing {
		t.Errorf("expected browsing mode after cancel, got %s", w.Categories.Mode())
	}
	if w.Categories.HasOrderChanges() {
		t.Error("no pending changes after cancel")
	}
}

func TestCategoryStore_OrderedByPositionAndByTotals(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	a := mustCreateCat(t, w, "A", domain.TypeExpense)
	b := mustCreateCat(t, w, "B", domain.TypeExpense)
	w.Categories.FetchAll(ctx)

	// Persisted order: B (position 1) then A (position 2).
	ordered := w.Categories.Ordered(nil)
	if ordered[0].ID != b.ID || ordered[1].ID != a.ID {
		t.Errorf("expected position ordering B,A got %v", ordered)
	}

	w.Categories.SetSortByTotal(true, false)
	totals := map[string]float64{a.ID: 100, b.ID: 5}
	ordered = w.Categories.Ordered(totals)
	if ordered[0].ID != a.ID {
		t.Errorf("expected totals ordering A first, got %v", ordered)
	}
}

func TestCategoryStore_ValidationSpanishMessages(t *testing.T) {
	w, store := newTestWorkspace(t)

	_, err := w.Categories.Create(context.Background(), domain.CategoryInput{Name: "x", Type: "other"})
	verr, ok := err.(*domain.ErrValidation)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.Calls != 0 {
		t.Errorf("expected zero network calls, got %d", store.Calls)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected name and type violations, got %v", verr.Errors)
	}
}
