// Package ledger defines the persistence ports for the expense ledger.
// Implementations live in ledger/memory and storage (SQLite).
package ledger

import (
	"context"
	"errors"

	"voxpense/internal/core"
)

// ErrEmptyLedger is returned by DeleteLast when there is nothing to
// delete.
var ErrEmptyLedger = errors.New("ledger is empty")

// Writer appends and removes entries. Append assigns the entry ID and
// returns the stored expense; DeleteLast removes the most recent entry
// (by date, then time of day, then ID) and returns what it deleted.
type Writer interface {
	Append(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteLast(ctx context.Context) (core.Expense, error)
}

// Reader serves the read-side queries. Date ranges are inclusive on
// both ends. Recent returns newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]core.Expense, error)
	TotalBetween(ctx context.Context, from, to core.Date) (core.Money, error)
	CategoryTotals(ctx context.Context, from, to core.Date) ([]core.CategoryTotal, error)
	DailyTotals(ctx context.Context, from, to core.Date) ([]core.DayTotal, error)
	MonthlyTotals(ctx context.Context, months int, now core.Date) ([]core.MonthTotal, error)
}

// Store is the full ledger port.
type Store interface {
	Writer
	Reader
}
