package service_test

import (
	"testing"

	"github.com/Giancarlo174/cenit/internal/domain"
	"github.com/Giancarlo174/cenit/internal/service"
)

func tx(typ domain.TransactionType, amount float64, date string) domain.Transaction {
	return domain.Transaction{Type: typ, Amount: amount, TransactionDate: date}
}

func TestBucketize_WeekLabelsClipToMonthEnd(t *testing.T) {
	// January has 31 days: the fifth window covers only days 29-31.
	buckets, err := service.Bucketize(nil, domain.ChartSelection{
		Period: domain.PeriodWeek, Year: 2025, Month: 1,
	})
	if err != nil {
		t.Fatalf("bucketize: %v", err)
	}

	want := []string{"Semana 1-7", "Semana 8-14", "Semana 15-21", "Semana 22-28", "Semana 29-31"}
	if len(buckets) != len(want) {
		t.Fatalf("expected %d week buckets, got %d", len(want), len(buckets))
	}
	for i, b := range buckets {
		if b.Label != want[i] {
			t.Errorf("bucket %d: expected label %q, got %q", i, want[i], b.Label)
		}
	}
}

func TestBucketize_WeekCountPerMonthLength(t *testing.T) {
	cases := []struct {
		year, month int
		weeks       int
	}{
		{2025, 2, 4}, // 28 days
		{2024, 2, 5}, // leap, 29 days
		{2025, 4, 5}, // 30 days
		{2025, 1, 5}, // 31 days
	}
	for _, c := range cases {
		buckets, err := service.Bucketize(nil, domain.ChartSelection{
			Period: domain.PeriodWeek, Year: c.year, Month: c.month,
		})
		if err != nil {
			t.Fatalf("bucketize %d-%d: %v", c.year, c.month, err)
		}
		if len(buckets) != c.weeks {
			t.Errorf("%d-%02d: expected %d weeks, got %d", c.year, c.month, c.weeks, len(buckets))
		}
	}
}

func TestBucketize_DayModeTrailingPartialWeek(t *testing.T) {
	// Week 5 of a 31-day month holds only three days.
	buckets, err := service.Bucketize(nil, domain.ChartSelection{
		Period: domain.PeriodDay, Year: 2025, Month: 3, Week: 5,
	})
	if err != nil {
		t.Fatalf("bucketize: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 day buckets for the trailing week, got %d", len(buckets))
	}
	if buckets[0].Label != "29 Mar" || buckets[2].Label != "31 Mar" {
		t.Errorf("day labels wrong: %q .. %q", buckets[0].Label, buckets[2].Label)
	}
}

func TestBucketize_DayModeAccumulates(t *testing.T) {
	txs := []domain.Transaction{
		tx(domain.TypeIncome, 50, "2025-03-03"),
		tx(domain.TypeExpense, 20, "2025-03-03"),
		tx(domain.TypeExpense, 5, "2025-03-08"),  // next week, excluded
		tx(domain.TypeExpense, 5, "2025-04-03"),  // other month, excluded
		tx(domain.TypeExpense, 5, "not-a-date"),  // malformed, ignored
		tx(domain.TypeExpense, 5, "2024-03-03"),  // other year, excluded
	}

	buckets, err := service.Bucketize(txs, domain.ChartSelection{
		Period: domain.PeriodDay, Year: 2025, Month: 3, Week: 1,
	})
	if err != nil {
		t.Fatalf("bucketize: %v", err)
	}
	if len(buckets) != 7 {
		t.Fatalf("expected 7 day buckets, got %d", len(buckets))
	}
	day3 := buckets[2]
	if day3.Label != "3 Mar" || day3.Income != 50 || day3.Expense != 20 {
		t.Errorf("day 3 bucket wrong: %+v", day3)
	}
	for i, b := range buckets {
		if i != 2 && (b.Income != 0 || b.Expense != 0) {
			t.Errorf("bucket %q should be empty: %+v", b.Label, b)
		}
	}
}

func TestBucketize_MonthModeIgnoresMalformedDates(t *testing.T) {
	txs := []domain.Transaction{
		tx(domain.TypeIncome, 10, "2025-05-09"),
		tx(domain.TypeIncome, 99, "2025-5-9"),   // wrong shape
		tx(domain.TypeIncome, 99, "2025-13-01"), // month out of range
		tx(domain.TypeIncome, 99, ""),
	}

	buckets, err := service.Bucketize(txs, domain.ChartSelection{Period: domain.PeriodMonth, Year: 2025})
	if err != nil {
		t.Fatalf("bucketize: %v", err)
	}
	if buckets[4].Label != "May" || buckets[4].Income != 10 {
		t.Errorf("May bucket wrong: %+v", buckets[4])
	}
	var total float64
	for _, b := range buckets {
		total += b.Income
	}
	if total != 10 {
		t.Errorf("malformed dates must contribute nothing, got total %v", total)
	}
}

func TestBucketize_InvalidSelections(t *testing.T) {
	cases := []struct {
		name string
		sel  domain.ChartSelection
	}{
		{"unknown period", domain.ChartSelection{Period: "year", Year: 2025}},
		{"month zero", domain.ChartSelection{Period: domain.PeriodWeek, Year: 2025, Month: 0}},
		{"month too large", domain.ChartSelection{Period: domain.PeriodDay, Year: 2025, Month: 13, Week: 1}},
		{"week zero", domain.ChartSelection{Period: domain.PeriodDay, Year: 2025, Month: 1, Week: 0}},
		{"week beyond month", domain.ChartSelection{Period: domain.PeriodDay, Year: 2025, Month: 2, Week: 5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := service.Bucketize(nil, c.sel)
			var verr *domain.ErrValidation
			if !asValidation(err, &verr) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAvailablePeriods_DerivedFromData(t *testing.T) {
	txs := []domain.Transaction{
		tx(domain.TypeIncome, 1, "2024-11-30"),
		tx(domain.TypeIncome, 1, "2025-02-14"),
		tx(domain.TypeExpense, 1, "2025-07-01"),
		tx(domain.TypeExpense, 1, "2025-07-20"),
	}

	periods := service.AvailablePeriods(txs, 2025, 7)
	if len(periods.Years) != 2 || periods.Years[0] != 2024 || periods.Years[1] != 2025 {
		t.Errorf("expected years [2024 2025], got %v", periods.Years)
	}
	if len(periods.Months) != 2 || periods.Months[0] != 2 || periods.Months[1] != 7 {
		t.Errorf("expected months [2 7] within 2025, got %v", periods.Months)
	}
	if periods.WeekCount != 5 {
		t.Errorf("July has 31 days, expected 5 weeks, got %d", periods.WeekCount)
	}
}

func TestAvailablePeriods_EmptyDataFallsBack(t *testing.T) {
	periods := service.AvailablePeriods(nil, 2025, 0)
	if len(periods.Years) != 1 {
		t.Errorf("expected the current year fallback, got %v", periods.Years)
	}
	if len(periods.Months) != 12 {
		t.Errorf("expected full month range fallback, got %v", periods.Months)
	}
	if periods.WeekCount != 5 {
		t.Errorf("expected default week count 5, got %d", periods.WeekCount)
	}
}

func TestAvailablePeriods_FebruaryWeekCount(t *testing.T) {
	txs := []domain.Transaction{tx(domain.TypeIncome, 1, "2025-02-01")}
	periods := service.AvailablePeriods(txs, 2025, 2)
	if periods.WeekCount != 4 {
		t.Errorf("February 2025 has 28 days, expected 4 weeks, got %d", periods.WeekCount)
	}
}
