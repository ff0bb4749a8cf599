package service

import (
	"context"
	"sort"
	"sync"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/events"
	"github.com/Giancarlo174/cenit/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashTracer = otel.Tracer("service/dashboard")

// recentLimit caps the recency-ordered transaction list in the stats.
const recentLimit = 15

// DashboardService memoizes the aggregate snapshot over one user's
// transaction and category collections. Stores publish entity changes
// on the bus; the service subscribes and nulls its memo, so the next
// access recomputes a full pass over the current collections.
type DashboardService struct {
	mu   sync.Mutex
	memo *domain.DashboardStats

	transactions *TransactionStore
	categories   *CategoryStore
	profile      *ProfileStore
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewDashboardService wires the aggregator to its source stores and
// subscribes it to the change bus.
func NewDashboardService(tx *TransactionStore, cats *CategoryStore, prof *ProfileStore, bus *events.Bus, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	d := &DashboardService{
		transactions: tx,
		categories:   cats,
		profile:      prof,
		metrics:      metrics,
		logger:       logger,
	}
	bus.Subscribe(func(events.Change) { d.Invalidate() })
	return d
}

// Invalidate discards the memoized snapshot. Idempotent: invalidating
// an already-null memo is a no-op and triggers no fetch.
func (d *DashboardService) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.memo == nil {
		return
	}
	d.memo = nil
	d.metrics.IncrInvalidation("dashboard")
}

// ensureSources loads the three source stores concurrently. Store reads
// swallow their own errors, so this only fails on context cancellation.
func (d *DashboardService) ensureSources(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { d.transactions.EnsureLoaded(ctx); return ctx.Err() })
	g.Go(func() error { d.categories.EnsureLoaded(ctx); return ctx.Err() })
	g.Go(func() error { d.profile.EnsureLoaded(ctx); return ctx.Err() })
	return g.Wait()
}

// Stats returns the aggregate snapshot, recomputing only when the memo
// is null.
func (d *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.Stats")
	defer span.End()

	d.mu.Lock()
	if d.memo != nil {
		memo := d.memo
		d.mu.Unlock()
		d.metrics.IncrStatsHit()
		return memo, nil
	}
	d.mu.Unlock()

	if err := d.ensureSources(ctx); err != nil {
		return nil, err
	}

	stats := computeStats(d.transactions.All(), d.categories.All(), d.profile.Username())

	d.mu.Lock()
	d.memo = &stats
	d.mu.Unlock()
	d.metrics.IncrStatsRecompute()
	return &stats, nil
}

// Chart buckets the transaction collection into the selected calendar
// window. Pure over the current snapshot; not memoized, the bucket pass
// is cheap next to a fetch.
func (d *DashboardService) Chart(ctx context.Context, sel domain.ChartSelection) ([]domain.ChartBucket, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.Chart")
	defer span.End()

	if err := d.ensureSources(ctx); err != nil {
		return nil, err
	}
	return Bucketize(d.transactions.All(), sel)
}

// Periods derives the selectable years/months/weeks from the data.
func (d *DashboardService) Periods(ctx context.Context, year, month int) (domain.ChartPeriods, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.Periods")
	defer span.End()

	if err := d.ensureSources(ctx); err != nil {
		return domain.ChartPeriods{}, err
	}
	return AvailablePeriods(d.transactions.All(), year, month), nil
}

// CategoryTotals accumulates per-category amounts, used for the
// amount-based category ordering.
func (d *DashboardService) CategoryTotals(ctx context.Context) (map[string]float64, error) {
	if err := d.ensureSources(ctx); err != nil {
		return nil, err
	}
	totals := map[string]float64{}
	for _, tx := range d.transactions.All() {
		if tx.Uncategorized() {
			continue
		}
		totals[*tx.CategoryID] += tx.Amount
	}
	return totals, nil
}

// computeStats is a pure full pass over the current collections.
func computeStats(txs []domain.Transaction, cats []domain.Category, username string) domain.DashboardStats {
	income := domain.TotalIncome(txs)
	expenses := domain.TotalExpenses(txs)

	incomeByCat := groupByCategory(txs, cats, domain.TypeIncome, income)
	expensesByCat := groupByCategory(txs, cats, domain.TypeExpense, expenses)

	stats := domain.DashboardStats{
		Username:           username,
		TotalIncome:        income,
		TotalExpenses:      expenses,
		CurrentBalance:     income - expenses,
		TransactionCount:   len(txs),
		CategoryCount:      len(cats),
		IncomeByCategory:   incomeByCat,
		ExpensesByCategory: expensesByCat,
		RecentTransactions: recentTransactions(txs),
	}
	if len(incomeByCat) > 0 {
		stats.TopIncomeCategory = &incomeByCat[0]
	}
	if len(expensesByCat) > 0 {
		stats.TopExpenseCategory = &expensesByCat[0]
	}
	return stats
}

// groupByCategory accumulates one type's transactions into category
// stats: zero-count categories excluded, sorted by total descending,
// percentage relative to the type total.
func groupByCategory(txs []domain.Transaction, cats []domain.Category, t domain.TransactionType, typeTotal float64) []domain.CategoryStat {
	byID := make(map[string]*domain.CategoryStat, len(cats))
	for _, cat := range cats {
		byID[cat.ID] = &domain.CategoryStat{CategoryID: cat.ID, Name: cat.Name, Type: cat.Type}
	}

	for _, tx := range txs {
		if tx.Type != t || tx.Uncategorized() {
			continue
		}
		stat, ok := byID[*tx.CategoryID]
		if !ok {
			continue
		}
		stat.Total += tx.Amount
		stat.Count++
	}

	var out []domain.CategoryStat
	for _, stat := range byID {
		if stat.Count == 0 {
			continue
		}
		if typeTotal > 0 {
			stat.Percentage = stat.Total / typeTotal * 100
		}
		out = append(out, *stat)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// recentTransactions orders by date descending with created-at
// tie-break, capped at recentLimit. Lexicographic string compare on
// YYYY-MM-DD is exact and timezone-free.
func recentTransactions(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TransactionDate != out[j].TransactionDate {
			return out[i].TransactionDate > out[j].TransactionDate
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	if len(out) > recentLimit {
		out = out[:recentLimit]
	}
	return out
}
