package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/Giancarlo174/cenit/internal/domain"
)

// Calendar bucketing for the dashboard chart. Dates are decomposed from
// their YYYY-MM-DD string form into integer components; no time.Time
// construction, so a transaction can never shift across a day boundary
// under any host timezone.

// Spanish month abbreviations, January first.
var monthAbbrevs = [12]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// splitDate decomposes a YYYY-MM-DD string. ok is false for anything
// that does not match the shape.
func splitDate(s string) (year, month, day int, ok bool) {
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return 0, 0, 0, false
	}
	if _, err := fmt.Sscanf(s[:10], "%04d-%02d-%02d", &year, &month, &day); err != nil {
		return 0, 0, 0, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

// daysInMonth returns the calendar length of a month. time.Date is used
// only for month arithmetic on whole days; no wall-clock instant is
// involved.
func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// weekCount is the number of 7-day windows covering a month.
func weekCount(year, month int) int {
	return (daysInMonth(year, month) + 6) / 7
}

// weekRange returns the first and last day of week N (1-indexed),
// clipped to the month length. Days beyond month end are dropped, not
// wrapped into the next month.
func weekRange(week, year, month int) (first, last int) {
	first = (week-1)*7 + 1
	last = week * 7
	if max := daysInMonth(year, month); last > max {
		last = max
	}
	return first, last
}

// bucketizeDay produces one bucket per valid calendar day of the
// selected 7-day week window. The trailing partial week yields fewer
// than seven buckets.
func bucketizeDay(txs []domain.Transaction, year, month, week int) []domain.ChartBucket {
	first, last := weekRange(week, year, month)
	if last < first {
		return nil
	}

	buckets := make([]domain.ChartBucket, last-first+1)
	for i := range buckets {
		buckets[i].Label = fmt.Sprintf("%d %s", first+i, monthAbbrevs[month-1])
	}

	for _, tx := range txs {
		y, m, d, ok := splitDate(tx.TransactionDate)
		if !ok || y != year || m != month || d < first || d > last {
			continue
		}
		addToBucket(&buckets[d-first], tx)
	}
	return buckets
}

// bucketizeWeek produces ceil(daysInMonth/7) buckets for one month,
// labeled by day range ("Semana 1-7").
func bucketizeWeek(txs []domain.Transaction, year, month int) []domain.ChartBucket {
	n := weekCount(year, month)
	buckets := make([]domain.ChartBucket, n)
	for w := 1; w <= n; w++ {
		first, last := weekRange(w, year, month)
		buckets[w-1].Label = fmt.Sprintf("Semana %d-%d", first, last)
	}

	for _, tx := range txs {
		y, m, d, ok := splitDate(tx.TransactionDate)
		if !ok || y != year || m != month {
			continue
		}
		w := (d-1)/7 + 1
		if w >= 1 && w <= n {
			addToBucket(&buckets[w-1], tx)
		}
	}
	return buckets
}

// bucketizeMonth produces exactly twelve buckets for one year.
func bucketizeMonth(txs []domain.Transaction, year int) []domain.ChartBucket {
	buckets := make([]domain.ChartBucket, 12)
	for i := range buckets {
		buckets[i].Label = monthAbbrevs[i]
	}

	for _, tx := range txs {
		y, m, _, ok := splitDate(tx.TransactionDate)
		if !ok || y != year {
			continue
		}
		addToBucket(&buckets[m-1], tx)
	}
	return buckets
}

func addToBucket(b *domain.ChartBucket, tx domain.Transaction) {
	switch tx.Type {
	case domain.TypeIncome:
		b.Income += tx.Amount
	case domain.TypeExpense:
		b.Expense += tx.Amount
	}
}

// Bucketize dispatches on the selection's period mode.
func Bucketize(txs []domain.Transaction, sel domain.ChartSelection) ([]domain.ChartBucket, error) {
	if !sel.Period.Valid() {
		return nil, &domain.ErrValidation{Errors: []string{`El periodo debe ser "day", "week" o "month"`}}
	}

	switch sel.Period {
	case domain.PeriodDay:
		if sel.Month < 1 || sel.Month > 12 {
			return nil, &domain.ErrValidation{Errors: []string{"Mes inválido"}}
		}
		if sel.Week < 1 || sel.Week > weekCount(sel.Year, sel.Month) {
			return nil, &domain.ErrValidation{Errors: []string{"Semana inválida"}}
		}
		return bucketizeDay(txs, sel.Year, sel.Month, sel.Week), nil
	case domain.PeriodWeek:
		if sel.Month < 1 || sel.Month > 12 {
			return nil, &domain.ErrValidation{Errors: []string{"Mes inválido"}}
		}
		return bucketizeWeek(txs, sel.Year, sel.Month), nil
	default:
		return bucketizeMonth(txs, sel.Year), nil
	}
}

// AvailablePeriods derives the selectable calendar windows from the
// transaction set: distinct years, distinct months within the selected
// year, and the week count of the selected month. With no data it falls
// back to the full calendar range anchored on the current year.
func AvailablePeriods(txs []domain.Transaction, selYear, selMonth int) domain.ChartPeriods {
	yearSet := map[int]bool{}
	monthSet := map[int]bool{}
	for _, tx := range txs {
		y, m, _, ok := splitDate(tx.TransactionDate)
		if !ok {
			continue
		}
		yearSet[y] = true
		if y == selYear {
			monthSet[m] = true
		}
	}

	var years []int
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	if len(years) == 0 {
		years = []int{time.Now().Year()}
	}

	var months []int
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Ints(months)
	if len(months) == 0 {
		months = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	}

	weeks := 5
	if selMonth >= 1 && selMonth <= 12 {
		weeks = weekCount(selYear, selMonth)
	}

	return domain.ChartPeriods{Years: years, Months: months, WeekCount: weeks}
}
