package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
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

var txTracer = otel.Tracer("service/transactions")

// SortField selects the transaction list ordering.
type SortField string

const (
	SortByRecency SortField = ""       // date desc, created_at desc tie-break
	SortByAmount  SortField = "amount" // amount, direction per SortAscending
)

// TransactionView is one page of the derived transaction listing.
type TransactionView struct {
	Items      []domain.Transaction `json:"items"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalItems int                  `json:"total_items"`
	TotalPages int                  `json:"total_pages"`
}

// TransactionStore owns one user's transaction collection: full
// replacement on fetch, optimistic local mutation on writes, and
// derived search/filter/sort/pagination views.
type TransactionStore struct {
	mu       sync.Mutex
	state    storeState
	userID   string
	items    []domain.Transaction
	lastErr  string
	mutating bool

	search     string
	typeFilter domain.TransactionType
	sortBy     SortField
	sortAsc    bool
	page       int
	pageSize   int

	records  port.RecordStore
	bus      *events.Bus
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTransactionStore creates an uninitialized transaction store.
func NewTransactionStore(records port.RecordStore, bus *events.Bus, notifier port.Notifier, metrics *observability.Metrics, pageSize int, logger *zap.Logger) *TransactionStore {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &TransactionStore{
		page:     1,
		pageSize: pageSize,
		records:  records,
		bus:      bus,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// SetUser binds the store to a user and resets all state. An empty id
// clears the store to the unauthenticated defaults.
func (s *TransactionStore) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.resetLocked()
}

func (s *TransactionStore) resetLocked() {
	s.state = stateUninitialized
	s.items = nil
	s.lastErr = ""
	s.search = ""
	s.typeFilter = ""
	s.sortBy = SortByRecency
	s.sortAsc = false
	s.page = 1
}

// State returns the lifecycle state.
func (s *TransactionStore) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.String()
}

// Error returns the last recorded fetch/mutation error message.
func (s *TransactionStore) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// All returns a copy of the current collection.
func (s *TransactionStore) All() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, len(s.items))
	copy(out, s.items)
	return out
}

// EnsureLoaded fetches the collection once per user binding. Subsequent
// calls are no-ops while the store is Loading or Ready.
func (s *TransactionStore) EnsureLoaded(ctx context.Context) {
	s.mu.Lock()
	if s.userID == "" || s.state != stateUninitialized {
		s.mu.Unlock()
		return
	}
	s.state = stateLoading
	s.mu.Unlock()

	s.FetchAll(ctx, domain.TransactionFilters{})
}

// FetchAll replaces the collection with the backend's current rows.
// A failed read degrades to the empty state with the error recorded;
// it is never re-thrown.
func (s *TransactionStore) FetchAll(ctx context.Context, filters domain.TransactionFilters) {
	ctx, span := txTracer.Start(ctx, "TransactionStore.FetchAll")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		return
	}

	start := time.Now()
	q := port.Query{
		Filters: map[string]any{"user_id": userID},
		OrderBy: &port.Order{Column: "transaction_date", Ascending: false},
	}
	if filters.Type.Valid() {
		q.Filters["type"] = string(filters.Type)
	}

	raw, err := s.records.List(ctx, "transactions", q)
	s.metrics.RecordStoreOp("transactions.fetch", time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateReady
	if err != nil {
		s.lastErr = err.Error()
		s.items = nil
		s.metrics.IncrRecordStoreError("transactions")
		s.logger.Warn("transactions fetch failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	var rows []domain.Transaction
	if err := json.Unmarshal(raw, &rows); err != nil {
		s.lastErr = err.Error()
		s.items = nil
		s.logger.Warn("transactions decode failed", zap.Error(err))
		return
	}

	// Date-range narrowing is applied locally: string compare is exact
	// for YYYY-MM-DD.
	if filters.StartDate != "" || filters.EndDate != "" {
		kept := rows[:0]
		for _, r := range rows {
			if filters.StartDate != "" && r.TransactionDate < filters.StartDate {
				continue
			}
			if filters.EndDate != "" && r.TransactionDate > filters.EndDate {
				continue
			}
			kept = append(kept, r)
		}
		rows = kept
	}

	s.lastErr = ""
	s.items = rows
	s.bus.Publish(events.Change{Entity: events.EntityTransactions, Action: events.ActionReloaded})
}

// beginMutation rejects a mutation while another one is in flight.
func (s *TransactionStore) beginMutation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutating {
		return &domain.ErrOperationPending{Store: "transactions"}
	}
	s.mutating = true
	return nil
}

func (s *TransactionStore) endMutation() {
	s.mu.Lock()
	s.mutating = false
	s.mu.Unlock()
}

// Create validates the payload, inserts it, and prepends the created
// row to the local collection without a refetch.
func (s *TransactionStore) Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionStore.Create")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		s.logger.Warn("transaction create while unauthenticated")
		return nil, nil
	}

	if err := domain.ValidateTransactionInput(in); err != nil {
		return nil, err
	}
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	start := time.Now()
	raw, err := s.records.Insert(ctx, "transactions", map[string]any{
		"user_id":          userID,
		"category_id":      in.CategoryID,
		"type":             string(in.Type),
		"amount":           in.Amount,
		"name":             strings.TrimSpace(in.Name),
		"transaction_date": in.TransactionDate,
	})
	s.metrics.RecordStoreOp("transactions.create", time.Since(start))
	if err != nil {
		s.recordError("transactions", err)
		return nil, err
	}

	var tx domain.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		s.recordError("transactions", err)
		return nil, err
	}

	s.mu.Lock()
	s.items = append([]domain.Transaction{tx}, s.items...)
	s.lastErr = ""
	s.mu.Unlock()

	s.bus.Publish(events.Change{Entity: events.EntityTransactions, Action: events.ActionCreated, ID: tx.ID})
	s.notifier.Success("Transacción registrada exitosamente")
	return &tx, nil
}

// Update validates and patches one transaction, replacing it in place.
func (s *TransactionStore) Update(ctx context.Context, id string, in domain.TransactionInput) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionStore.Update")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		s.logger.Warn("transaction update while unauthenticated")
		return nil, nil
	}

	if err := domain.ValidateTransactionInput(in); err != nil {
		return nil, err
	}
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	start := time.Now()
	raw, err := s.records.Update(ctx, "transactions", id, map[string]any{
		"category_id":      in.CategoryID,
		"type":             string(in.Type),
		"amount":           in.Amount,
		"name":             strings.TrimSpace(in.Name),
		"transaction_date": in.TransactionDate,
	})
	s.metrics.RecordStoreOp("transactions.update", time.Since(start))
	if err != nil {
		s.recordError("transactions", err)
		return nil, err
	}

	var tx domain.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		s.recordError("transactions", err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = tx
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.bus.Publish(events.Change{Entity: events.EntityTransactions, Action: events.ActionUpdated, ID: id})
	s.notifier.Success("Transacción actualizada exitosamente")
	return &tx, nil
}

// Remove deletes one transaction after the confirmation gate accepts.
// A declined confirmation performs zero network calls.
func (s *TransactionStore) Remove(ctx context.Context, id string, confirm port.Confirmer) error {
	ctx, span := txTracer.Start(ctx, "TransactionStore.Remove")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		s.logger.Warn("transaction remove while unauthenticated")
		return nil
	}

	ok, err := confirm.Confirm(ctx, "¿Eliminar esta transacción?")
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
	err = s.records.Delete(ctx, "transactions", id)
	s.metrics.RecordStoreOp("transactions.delete", time.Since(start))
	if err != nil {
		s.recordError("transactions", err)
		return err
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, tx := range s.items {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	s.items = kept
	s.lastErr = ""
	s.mu.Unlock()

	s.bus.Publish(events.Change{Entity: events.EntityTransactions, Action: events.ActionDeleted, ID: id})
	s.notifier.Success("Transacción eliminada exitosamente")
	return nil
}

// Uncategorized lists the user's transactions with no category, queried
// with an IS NULL filter.
func (s *TransactionStore) Uncategorized(ctx context.Context) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionStore.Uncategorized")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		return nil, nil
	}

	raw, err := s.records.List(ctx, "transactions", port.Query{
		Filters: map[string]any{"user_id": userID, "category_id": nil},
		OrderBy: &port.Order{Column: "transaction_date", Ascending: false},
	})
	if err != nil {
		return nil, err
	}

	var rows []domain.Transaction
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AssignCategory sets or clears (nil) one transaction's category.
func (s *TransactionStore) AssignCategory(ctx context.Context, id string, categoryID *string) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionStore.AssignCategory")
	defer span.End()

	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		s.logger.Warn("assign category while unauthenticated")
		return nil, nil
	}

	var value any
	if categoryID != nil && *categoryID != "" {
		value = *categoryID
	}
	raw, err := s.records.Update(ctx, "transactions", id, map[string]any{"category_id": value})
	if err != nil {
		s.recordError("transactions", err)
		return nil, err
	}

	var tx domain.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		s.recordError("transactions", err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = tx
			break
		}
	}
	s.mu.Unlock()

	s.bus.Publish(events.Change{Entity: events.EntityTransactions, Action: events.ActionUpdated, ID: id})
	return &tx, nil
}

func (s *TransactionStore) recordError(table string, err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.metrics.IncrRecordStoreError(table)
	s.notifier.Error(err.Error())
}

// ============================================================
// Derived views
// ============================================================

// SetSearch sets the search term. Any actual change resets to page 1.
func (s *TransactionStore) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.search == term {
		return
	}
	s.search = term
	s.page = 1
}

// SetTypeFilter narrows the view to one type ("" clears). Any actual
// change resets to page 1.
func (s *TransactionStore) SetTypeFilter(t domain.TransactionType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.typeFilter == t {
		return
	}
	s.typeFilter = t
	s.page = 1
}

// SetSort sets the sort order. Any actual change resets to page 1.
func (s *TransactionStore) SetSort(field SortField, ascending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sortBy == field && s.sortAsc == ascending {
		return
	}
	s.sortBy = field
	s.sortAsc = ascending
	s.page = 1
}

// SetPage selects a 1-indexed page. Out-of-range values are clamped at
// view time.
func (s *TransactionStore) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	s.page = page
}

// View computes the filtered, sorted, paginated slice of the collection.
func (s *TransactionStore) View() TransactionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]domain.Transaction, 0, len(s.items))
	for _, tx := range s.items {
		if s.typeFilter.Valid() && tx.Type != s.typeFilter {
			continue
		}
		if s.search != "" && !matchesSearch(tx, s.search) {
			continue
		}
		filtered = append(filtered, tx)
	}

	sortTransactions(filtered, s.sortBy, s.sortAsc)

	total := len(filtered)
	totalPages := (total + s.pageSize - 1) / s.pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := s.page
	if page > totalPages {
		page = totalPages
	}

	lo := (page - 1) * s.pageSize
	hi := lo + s.pageSize
	if lo > total {
		lo = total
	}
	if hi > total {
		hi = total
	}

	return TransactionView{
		Items:      filtered[lo:hi],
		Page:       page,
		PageSize:   s.pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// matchesSearch reports a case-insensitive substring match over the
// transaction name or its amount rendered as a plain decimal.
func matchesSearch(tx domain.Transaction, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(tx.Name), term) {
		return true
	}
	amount := strconv.FormatFloat(tx.Amount, 'f', -1, 64)
	return strings.Contains(amount, term)
}

// sortTransactions orders in place: amount sort when selected,
// otherwise recency (date desc, created_at desc tie-break).
func sortTransactions(txs []domain.Transaction, field SortField, ascending bool) {
	switch field {
	case SortByAmount:
		sort.SliceStable(txs, func(i, j int) bool {
			if ascending {
				return txs[i].Amount < txs[j].Amount
			}
			return txs[i].Amount > txs[j].Amount
		})
	default:
		sort.SliceStable(txs, func(i, j int) bool {
			if txs[i].TransactionDate != txs[j].TransactionDate {
				return txs[i].TransactionDate > txs[j].TransactionDate
			}
			return txs[i].CreatedAt > txs[j].CreatedAt
		})
	}
}
