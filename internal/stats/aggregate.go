// Package stats derives spending aggregates from expense records.
//
// Every function is pure: it reads the slice it is given, never retains it and
// never mutates it, so callers may invoke it concurrently on shared snapshots.
// Inputs are validated eagerly; a malformed record fails the whole call with
// core.ErrInvalidRecord instead of leaking NaN or negative values into totals,
// and a total that overflows int64 cents fails with core.ErrAmountOverflow.
//
// Months are time.Month values (January = 1).
package stats

import (
	"strings"
	"time"

	"pocketwatcher/internal/core"
)

type monthKey struct {
	year  int
	month time.Month
}

// SumAmounts returns the total of all record amounts. The sum is computed in
// integer cents, so the result does not depend on input order.
func SumAmounts(records []core.Expense) (core.Money, error) {
	var total core.Money
	for i, e := range records {
		m, err := amountOf(i, e)
		if err != nil {
			return core.Money{}, err
		}
		if total, err = total.Add(m); err != nil {
			return core.Money{}, err
		}
	}
	return total, nil
}

// FilterByMonth returns the records whose date falls in the given calendar
// month, preserving input order.
func FilterByMonth(records []core.Expense, year int, month time.Month) ([]core.Expense, error) {
	if !core.ValidMonth(month) {
		return nil, core.InvalidArgument("month %d out of range 1-12", month)
	}
	out := make([]core.Expense, 0, len(records))
	for i, e := range records {
		if err := validateRecord(i, e); err != nil {
			return nil, err
		}
		if e.Date.Year() == year && e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out, nil
}

// GroupByCategory sums amounts per category. Only categories present in the
// input appear as keys.
func GroupByCategory(records []core.Expense) (map[string]core.Money, error) {
	totals := make(map[string]core.Money)
	for i, e := range records {
		m, err := amountOf(i, e)
		if err != nil {
			return nil, err
		}
		if totals[e.Category], err = totals[e.Category].Add(m); err != nil {
			return nil, err
		}
	}
	return totals, nil
}

// MonthlySeries returns monthCount totals for the consecutive months ending at
// the reference month, oldest first.
func MonthlySeries(records []core.Expense, refYear int, refMonth time.Month, monthCount int) ([]core.MonthTotal, error) {
	if !core.ValidMonth(refMonth) {
		return nil, core.InvalidArgument("month %d out of range 1-12", refMonth)
	}
	if monthCount <= 0 {
		return nil, core.InvalidArgument("month count must be positive, got %d", monthCount)
	}

	// One pass buckets every record; the result equals summing
	// FilterByMonth for each month of the window.
	buckets := make(map[monthKey]core.Money)
	for i, e := range records {
		m, err := amountOf(i, e)
		if err != nil {
			return nil, err
		}
		k := monthKey{year: e.Date.Year(), month: e.Date.Month()}
		if buckets[k], err = buckets[k].Add(m); err != nil {
			return nil, err
		}
	}

	series := make([]core.MonthTotal, 0, monthCount)
	for offset := monthCount - 1; offset >= 0; offset-- {
		y, m := core.AddMonths(refYear, refMonth, -offset)
		series = append(series, core.MonthTotal{
			Year:  y,
			Month: m,
			Label: core.MonthLabel(m),
			Total: buckets[monthKey{year: y, month: m}],
		})
	}
	return series, nil
}

func amountOf(i int, e core.Expense) (core.Money, error) {
	if err := validateRecord(i, e); err != nil {
		return core.Money{}, err
	}
	m, _ := e.Money()
	return m, nil
}

// validateRecord checks the fields aggregation reads.
func validateRecord(i int, e core.Expense) error {
	if _, err := e.Money(); err != nil {
		return &core.RecordError{Index: i, ID: e.ID, Reason: err}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &core.RecordError{Index: i, ID: e.ID, Reason: core.ErrEmptyCategory}
	}
	if err := e.Date.Validate(); err != nil {
		return &core.RecordError{Index: i, ID: e.ID, Reason: err}
	}
	return nil
}
