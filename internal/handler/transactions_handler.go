package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/infra/notify"
	"github.com/Giancarlo174/cenit/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Transacciones
// ============================================================

// listTransactionsHandler serves the derived view. Query params adjust
// the store's filters before the page is computed: search, type,
// sort (amount), order (asc|desc), page.
func listTransactionsHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		store := ws.Transactions
		store.EnsureLoaded(ctx)

		q := r.URL.Query()
		if q.Has("search") {
			store.SetSearch(q.Get("search"))
		}
		if q.Has("type") {
			store.SetTypeFilter(domain.TransactionType(q.Get("type")))
		}
		if q.Has("sort") {
			field := service.SortByRecency
			if q.Get("sort") == "amount" {
				field = service.SortByAmount
			}
			store.SetSort(field, q.Get("order") == "asc")
		}
		if q.Has("page") {
			store.SetPage(queryInt(r, "page", 1))
		}

		writeJSON(w, http.StatusOK, store.View())
	}
}

func fetchTransactionsHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/fetch")
		defer span.End()

		ws := WorkspaceFromContext(ctx)

		var filters domain.TransactionFilters
		if r.Body != nil {
			var req struct {
				Type      string `json:"type"`
				StartDate string `json:"start_date"`
				EndDate   string `json:"end_date"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			filters = domain.TransactionFilters{
				Type:      domain.TransactionType(req.Type),
				StartDate: req.StartDate,
				EndDate:   req.EndDate,
			}
		}

		ws.Transactions.FetchAll(ctx, filters)
		if msg := ws.Transactions.Error(); msg != "" {
			// Reads degrade to empty state; the error travels as data.
			writeJSON(w, http.StatusOK, map[string]any{"items": []any{}, "error": msg})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": ws.Transactions.All()})
	}
}

func createTransactionHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		ws := WorkspaceFromContext(ctx)

		var in domain.TransactionInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := ws.Transactions.Create(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if tx == nil {
			writeError(w, http.StatusUnauthorized, "Usuario no autenticado")
			return
		}

		writeJSON(w, http.StatusCreated, tx)
	}
}

func updateTransactionHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{id}")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		id := chi.URLParam(r, "id")

		var in domain.TransactionInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := ws.Transactions.Update(ctx, id, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if tx == nil {
			writeError(w, http.StatusUnauthorized, "Usuario no autenticado")
			return
		}

		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{id}")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		id := chi.URLParam(r, "id")
		confirmed := r.URL.Query().Get("confirm") == "true"

		err := ws.Transactions.Remove(ctx, id, notify.StaticConfirmer{Answer: confirmed})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"deleted": confirmed})
	}
}

func listUncategorizedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/uncategorized")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		txs, err := ws.Transactions.Uncategorized(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if txs == nil {
			txs = []domain.Transaction{}
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func assignCategoryHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{id}/category")
		defer span.End()

		ws := WorkspaceFromContext(ctx)
		id := chi.URLParam(r, "id")

		var req struct {
			CategoryID *string `json:"category_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tx, err := ws.Transactions.AssignCategory(ctx, id, req.CategoryID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if tx == nil {
			writeError(w, http.StatusUnauthorized, "Usuario no autenticado")
			return
		}

		writeJSON(w, http.StatusOK, tx)
	}
}
