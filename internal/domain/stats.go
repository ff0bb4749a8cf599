package domain

// ============================================================
// Dashboard aggregates (derived, never persisted)
// ============================================================

// CategoryStat is one category's accumulated totals within its type.
type CategoryStat struct {
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Type       TransactionType `json:"type"`
	Total      float64         `json:"total"`
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
}

// DashboardStats is the memoized aggregate snapshot over the current
// transaction and category collections of one user. Any mutation to
// either collection invalidates it.
type DashboardStats struct {
	Username           string         `json:"username"`
	TotalIncome        float64        `json:"total_income"`
	TotalExpenses      float64        `json:"total_expenses"`
	CurrentBalance     float64        `json:"current_balance"`
	TransactionCount   int            `json:"transaction_count"`
	CategoryCount      int            `json:"category_count"`
	IncomeByCategory   []CategoryStat `json:"income_by_category"`
	ExpensesByCategory []CategoryStat `json:"expenses_by_category"`
	TopIncomeCategory  *CategoryStat  `json:"top_income_category"`
	TopExpenseCategory *CategoryStat  `json:"top_expense_category"`
	RecentTransactions []Transaction  `json:"recent_transactions"`
}

// ============================================================
// Chart buckets
// ============================================================

// ChartPeriod selects the calendar bucketing mode for the chart.
type ChartPeriod string

const (
	PeriodDay   ChartPeriod = "day"   // the days of one 7-day week window
	PeriodWeek  ChartPeriod = "week"  // the weeks of one month
	PeriodMonth ChartPeriod = "month" // the twelve months of one year
)

// Valid reports whether p is a known period mode.
func (p ChartPeriod) Valid() bool {
	return p == PeriodDay || p == PeriodWeek || p == PeriodMonth
}

// ChartBucket is one time-aligned aggregation slot in the dashboard chart.
type ChartBucket struct {
	Label   string  `json:"label"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// ChartSelection pins the chart to a concrete calendar window.
// Month and Week are 1-indexed; Week selects a 7-day window of the
// month (week N covers days (N-1)*7+1 .. N*7, clipped to month length).
type ChartSelection struct {
	Period ChartPeriod `json:"period"`
	Year   int         `json:"year"`
	Month  int         `json:"month"`
	Week   int         `json:"week"`
}

// ChartPeriods lists the calendar windows that actually contain data,
// derived from the transaction set (never hardcoded).
type ChartPeriods struct {
	Years     []int `json:"years"`
	Months    []int `json:"months"`
	WeekCount int   `json:"week_count"`
}
