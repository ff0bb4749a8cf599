package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/infra/notify"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Categorías
// ============================================================

// listCategoriesHandler serves the canonical ordering: persisted
// position, or accumulated totals when sort=total is requested.
func listCategoriesHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/categories")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		ws.Categories.EnsureLoaded(ctx)

		q := r.URL.Query()
		if q.Has("search") {
			ws.Categories.SetSearch(q.Get("search"))
		}
		ws.Categories.SetSortByTotal(q.Get("sort") == "total", q.Get("order") == "asc")

		var totals map[string]float64
		if q.Get("sort") == "total" {
			t, err := ws.Dashboard.CategoryTotals(ctx)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			totals = t
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"items": ws.Categories.Ordered(totals),
			"mode":  ws.Categories.Mode(),
		})
	}
}

func createCategoryHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		ws.Categories.EnsureLoaded(ctx)

		var in domain.CategoryInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cat, err := ws.Categories.Create(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if cat == nil {
			writeError(w, http.StatusUnauthorized, "Usuario no autenticado")
			return
		}

		writeJSON(w, http.StatusCreated, cat)
	}
}

func updateCategoryHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/categories/{id}")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		id := chi.URLParam(r, "id")

		var in domain.CategoryInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cat, err := ws.Categories.Update(ctx, id, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if cat == nil {
			writeError(w, http.StatusUnauthorized, "Usuario no autenticado")
			return
		}

		writeJSON(w, http.StatusOK, cat)
	}
}

func deleteCategoryHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/categories/{id}")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		id := chi.URLParam(r, "id")
		confirmed := r.URL.Query().Get("confirm") == "true"

		err := ws.Categories.Remove(ctx, id, notify.StaticConfirmer{Answer: confirmed})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"deleted": confirmed})
	}
}

// ============================================================
// Reordenamiento manual
// ============================================================

func startReorderHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories/reorder/start")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		ws.Categories.EnsureLoaded(ctx)

		if err := ws.Categories.StartReorder(); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"mode":  ws.Categories.Mode(),
			"items": ws.Categories.All(),
		})
	}
}

func moveReorderHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories/reorder/move")
		defer span.End()

		ws := WorkspaceFromContext(ctx)

		var req struct {
			From int `json:"from"`
			To   int `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := ws.Categories.Move(req.From, req.To); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items":       ws.Categories.All(),
			"has_changes": ws.Categories.HasOrderChanges(),
		})
	}
}

func cancelReorderHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories/reorder/cancel")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		if err := ws.Categories.CancelReorder(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"mode":  ws.Categories.Mode(),
			"items": ws.Categories.All(),
		})
	}
}

func saveReorderHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/categories/reorder/save")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		if err := ws.Categories.SaveOrder(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"mode":  ws.Categories.Mode(),
			"items": ws.Categories.All(),
		})
	}
}
