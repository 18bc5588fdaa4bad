// Package memory is an in-memory ledger store. It backs tests and the
// zero-setup development mode; everything is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"voxpense/internal/core"
	"voxpense/internal/ledger"
)

// Store keeps expenses in a slice guarded by a mutex. IDs are assigned
// from a monotonic counter and never reused, even after deletes.
type Store struct {
	mu       sync.Mutex
	expenses []core.Expense
	nextID   int64
}

func New() *Store {
	return &Store{nextID: 1}
}

var _ ledger.Store = (*Store)(nil)

func (s *Store) Append(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.expenses = append(s.expenses, e)
	return e, nil
}

// DeleteLast removes the entry that sorts last by date, time of day and
// ID, so a backdated entry never shadows today's.
func (s *Store) DeleteLast(_ context.Context) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.expenses) == 0 {
		return core.Expense{}, ledger.ErrEmptyLedger
	}
	last := 0
	for i := 1; i < len(s.expenses); i++ {
		if s.expenses[i].After(s.expenses[last]) {
			last = i
		}
	}
	deleted := s.expenses[last]
	s.expenses = append(s.expenses[:last], s.expenses[last+1:]...)
	return deleted, nil
}

func (s *Store) Recent(_ context.Context, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := make([]core.Expense, len(s.expenses))
	copy(sorted, s.expenses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (s *Store) TotalBetween(_ context.Context, from, to core.Date) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cents int64
	for _, e := range s.expenses {
		if inRange(e.Date, from, to) {
			cents += e.Amount.Cents
		}
	}
	return core.Money{Cents: cents}, nil
}

func (s *Store) CategoryTotals(_ context.Context, from, to core.Date) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := map[string]int64{}
	for _, e := range s.expenses {
		if inRange(e.Date, from, to) {
			totals[e.Category] += e.Amount.Cents
		}
	}
	out := make([]core.CategoryTotal, 0, len(totals))
	for cat, cents := range totals {
		out = append(out, core.CategoryTotal{Category: cat, Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (s *Store) DailyTotals(_ context.Context, from, to core.Date) ([]core.DayTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := map[string]int64{}
	for _, e := range s.expenses {
		if inRange(e.Date, from, to) {
			totals[e.Date.String()] += e.Amount.Cents
		}
	}
	out := make([]core.DayTotal, 0, len(totals))
	for day, cents := range totals {
		out = append(out, core.DayTotal{Date: day, Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *Store) MonthlyTotals(_ context.Context, months int, now core.Date) ([]core.MonthTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := now.Time.AddDate(0, -(months - 1), -(now.Day() - 1))
	floor := first.Format("2006-01")
	totals := map[string]int64{}
	for _, e := range s.expenses {
		month := e.Date.Time.Format("2006-01")
		if month >= floor && month <= now.Time.Format("2006-01") {
			totals[month] += e.Amount.Cents
		}
	}
	out := make([]core.MonthTotal, 0, len(totals))
	for month, cents := range totals {
		out = append(out, core.MonthTotal{Month: month, Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func inRange(d, from, to core.Date) bool {
	return !d.Before(from) && !to.Before(d)
}
