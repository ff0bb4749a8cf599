package service_test

import (
	"context"
	"testing"

	"github.com/Giancarlo174/cenit/internal/domain"
)

func TestDashboardService_BalanceIdentity(t *testing.T) {
	w, store := newTestWorkspace(t)
	ctx := context.Background()
	seedProfile(t, store, "giancarlo")

	stats, err := w.Dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats on empty collections: %v", err)
	}
	if stats.TotalIncome != 0 || stats.TotalExpenses != 0 || stats.CurrentBalance != 0 {
		t.Errorf("empty collections must yield zero totals, got %+v", stats)
	}

	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: "cat-1", Type: domain.TypeIncome, Amount: 100, Name: "Salario", TransactionDate: "2025-01-05",
	})
	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: "cat-1", Type: domain.TypeExpense, Amount: 40, Name: "Comida", TransactionDate: "2025-01-20",
	})

	stats, err = w.Dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CurrentBalance != stats.TotalIncome-stats.TotalExpenses {
		t.Errorf("balance must equal income minus expenses: %+v", stats)
	}
	if stats.TotalIncome != 100 || stats.TotalExpenses != 40 || stats.CurrentBalance != 60 {
		t.Errorf("expected 100/40/60, got %+v", stats)
	}
	if stats.Username != "giancarlo" {
		t.Errorf("expected profile username, got %q", stats.Username)
	}
	if stats.TransactionCount != 2 {
		t.Errorf("expected 2 transactions counted, got %d", stats.TransactionCount)
	}
}

func TestDashboardService_StatsMemoizedUntilMutation(t *testing.T) {
	w, store := newTestWorkspace(t)
	ctx := context.Background()

	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: "cat-1", Type: domain.TypeIncome, Amount: 10, Name: "Ingreso", TransactionDate: "2025-01-01",
	})

	first, err := w.Dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	calls := store.Calls

	second, err := w.Dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if store.Calls != calls {
		t.Errorf("memoized stats must not touch the backend, got %d extra calls", store.Calls-calls)
	}
	if first != second {
		t.Error("expected the identical memoized snapshot")
	}

	// A mutation invalidates; the next access recomputes.
	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: "cat-1", Type: domain.TypeExpense, Amount: 3, Name: "Gasto", TransactionDate: "2025-01-02",
	})
	third, err := w.Dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats after mutation: %v", err)
	}
	if third.TransactionCount != 2 || third.CurrentBalance != 7 {
		t.Errorf("recomputed snapshot stale: %+v", third)
	}
}

func TestDashboardService_InvalidateIsIdempotent(t *testing.T) {
	w, _ := newTestWorkspace(t)

	// Invalidating an already-null memo must not panic or fetch.
	w.Dashboard.Invalidate()
	w.Dashboard.Invalidate()

	if _, err := w.Dashboard.Stats(context.Background()); err != nil {
		t.Fatalf("stats after redundant invalidation: %v", err)
	}
	w.Dashboard.Invalidate()
	w.Dashboard.Invalidate()
}

func TestDashboardService_ChartMonthMode(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: "cat-1", Type: domain.TypeIncome, Amount: 100, Name: "Salario", TransactionDate: "2025-01-05",
	})
	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: "cat-1", Type: domain.TypeExpense, Amount: 40, Name: "Comida", TransactionDate: "2025-01-20",
	})

	buckets, err := w.Dashboard.Chart(ctx, domain.ChartSelection{Period: domain.PeriodMonth, Year: 2025})
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if len(buckets) != 12 {
		t.Fatalf("month mode must yield 12 buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "Ene" || buckets[0].Income != 100 || buckets[0].Expense != 40 {
		t.Errorf("January bucket wrong: %+v", buckets[0])
	}
	for i := 1; i < 12; i++ {
		if buckets[i].Income != 0 || buckets[i].Expense != 0 {
			t.Errorf("bucket %s should be empty: %+v", buckets[i].Label, buckets[i])
		}
	}
}

func TestDashboardService_MonthBucketsSumToYearTotals(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	rows := []struct {
		typ    domain.TransactionType
		amount float64
		date   string
	}{
		{domain.TypeIncome, 100, "2025-01-05"},
		{domain.TypeIncome, 250, "2025-06-18"},
		{domain.TypeExpense, 40, "2025-01-20"},
		{domain.TypeExpense, 75.5, "2025-12-31"},
		{domain.TypeIncome, 999, "2024-07-01"}, // other year, excluded
	}
	for _, r := range rows {
		mustCreateTx(t, w, domain.TransactionInput{
			CategoryID: "cat-1", Type: r.typ, Amount: r.amount, Name: "Registro", TransactionDate: r.date,
		})
	}

	buckets, err := w.Dashboard.Chart(ctx, domain.ChartSelection{Period: domain.PeriodMonth, Year: 2025})
	if err != nil {
		t.Fatalf("chart: %v", err)
	}

	var income, expense float64
	for _, b := range buckets {
		income += b.Income
		expense += b.Expense
	}
	if income != 350 || expense != 115.5 {
		t.Errorf("bucket sums must match the year-restricted totals, got income=%v expense=%v", income, expense)
	}
}

func TestDashboardService_ChartRejectsInvalidSelection(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	cases := []domain.ChartSelection{
		{Period: "decade", Year: 2025},
		{Period: domain.PeriodWeek, Year: 2025, Month: 13},
		{Period: domain.PeriodDay, Year: 2025, Month: 2, Week: 9},
	}
	for _, sel := range cases {
		if _, err := w.Dashboard.Chart(ctx, sel); err == nil {
			t.Errorf("selection %+v should be rejected", sel)
		}
	}
}

func TestDashboardService_RecentTransactionsCappedAndOrdered(t *testing.T) {
	w, store := newTestWorkspace(t)
	ctx := context.Background()
	seedProfile(t, store, "giancarlo")

	dates := []string{"2025-03-01", "2025-03-15", "2025-02-10"}
	for i := 0; i < 18; i++ {
		mustCreateTx(t, w, domain.TransactionInput{
			CategoryID: "cat-1", Type: domain.TypeExpense, Amount: 1, Name: "Gasto", TransactionDate: dates[i%len(dates)],
		})
	}

	stats, err := w.Dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	recent := stats.RecentTransactions
	if len(recent) != 15 {
		t.Fatalf("recent list must cap at 15, got %d", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		prev, cur := recent[i-1], recent[i]
		if prev.TransactionDate < cur.TransactionDate {
			t.Fatalf("recent list not date-descending at %d: %s < %s", i, prev.TransactionDate, cur.TransactionDate)
		}
		if prev.TransactionDate == cur.TransactionDate && prev.CreatedAt < cur.CreatedAt {
			t.Fatalf("created-at tie-break violated at %d", i)
		}
	}
}

func TestDashboardService_GroupByCategoryExcludesZeroCounts(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	used := mustCreateCat(t, w, "Comida", domain.TypeExpense)
	mustCreateCat(t, w, "Viajes", domain.TypeExpense) // never referenced
	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: used.ID, Type: domain.TypeExpense, Amount: 30, Name: "Almuerzo", TransactionDate: "2025-01-01",
	})
	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: used.ID, Type: domain.TypeExpense, Amount: 10, Name: "Cena", TransactionDate: "2025-01-02",
	})

	stats, err := w.Dashboard.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if len(stats.ExpensesByCategory) != 1 {
		t.Fatalf("zero-count categories must be excluded, got %+v", stats.ExpensesByCategory)
	}
	top := stats.ExpensesByCategory[0]
	if top.CategoryID != used.ID || top.Total != 40 || top.Count != 2 {
		t.Errorf("category stat wrong: %+v", top)
	}
	if top.Percentage != 100 {
		t.Errorf("sole category must hold 100%% of its type, got %v", top.Percentage)
	}
	if stats.TopExpenseCategory == nil || stats.TopExpenseCategory.CategoryID != used.ID {
		t.Errorf("top expense category wrong: %+v", stats.TopExpenseCategory)
	}
	if stats.TopIncomeCategory != nil {
		t.Errorf("no income data, top income must be nil: %+v", stats.TopIncomeCategory)
	}
}

func TestDashboardService_CategoryTotals(t *testing.T) {
	w, _ := newTestWorkspace(t)
	ctx := context.Background()

	a := mustCreateCat(t, w, "Comida", domain.TypeExpense)
	b := mustCreateCat(t, w, "Salario", domain.TypeIncome)
	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: a.ID, Type: domain.TypeExpense, Amount: 25, Name: "Mercado", TransactionDate: "2025-01-01",
	})
	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: a.ID, Type: domain.TypeExpense, Amount: 5, Name: "Café", TransactionDate: "2025-01-02",
	})
	mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: b.ID, Type: domain.TypeIncome, Amount: 900, Name: "Pago", TransactionDate: "2025-01-03",
	})

	tx := mustCreateTx(t, w, domain.TransactionInput{
		CategoryID: b.ID, Type: domain.TypeIncome, Amount: 1, Name: "Suelto", TransactionDate: "2025-01-04",
	})
	if _, err := w.Transactions.AssignCategory(ctx, tx.ID, nil); err != nil {
		t.Fatalf("clear category: %v", err)
	}

	totals, err := w.Dashboard.CategoryTotals(ctx)
	if err != nil {
		t.Fatalf("category totals: %v", err)
	}
	if totals[a.ID] != 30 || totals[b.ID] != 900 {
		t.Errorf("expected totals a=30 b=900, got %v", totals)
	}
	if len(totals) != 2 {
		t.Errorf("uncategorized amounts must not appear, got %v", totals)
	}
}
