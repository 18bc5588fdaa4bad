package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"voxpense/internal/core"
	"voxpense/internal/ledger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func addExpense(t *testing.T, repo *Repository, cents int64, category, date, tod string) core.Expense {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := repo.Append(context.Background(), core.Expense{
		Amount:    core.Money{Cents: cents},
		Category:  category,
		Date:      d,
		TimeOfDay: tod,
	})
	if err != nil {
		t.Fatal(err)
	}
	return stored
}

func TestAppendRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	stored := addExpense(t, repo, 50000, "food", "2026-08-26", "12:00:00")
	if stored.ID == 0 {
		t.Fatal("append did not assign an ID")
	}

	recent, err := repo.Recent(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %d entries", len(recent))
	}
	got := recent[0]
	if got.ID != stored.ID || got.Amount.Cents != 50000 || got.Category != "food" || got.Date.String() != "2026-08-26" {
		t.Errorf("got %+v", got)
	}
}

func TestAppendValidates(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.Append(context.Background(), core.Expense{
		Amount:    core.Money{Cents: 0},
		Category:  "food",
		Date:      core.NewDate(2026, 8, 26),
		TimeOfDay: "12:00:00",
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("got %v", err)
	}
}

func TestDeleteLastUsesLedgerOrdering(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	addExpense(t, repo, 10000, "food", "2026-08-25", "09:00:00")
	newest := addExpense(t, repo, 20000, "transport", "2026-08-26", "10:00:00")
	// Backdated entry inserted last must not shadow the newest date.
	addExpense(t, repo, 30000, "rent", "2026-08-01", "23:00:00")

	deleted, err := repo.DeleteLast(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.ID != newest.ID {
		t.Errorf("deleted %d (%s), want %d", deleted.ID, deleted.Date, newest.ID)
	}
}

func TestDeleteLastEmpty(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.DeleteLast(context.Background())
	if !errors.Is(err, ledger.ErrEmptyLedger) {
		t.Errorf("got %v", err)
	}
}

func TestTotalsAndRecent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	addExpense(t, repo, 10000, "food", "2026-08-24", "09:00:00")
	addExpense(t, repo, 20000, "food", "2026-08-25", "10:00:00")
	addExpense(t, repo, 30000, "transport", "2026-08-26", "11:00:00")

	from, _ := core.ParseDate("2026-08-25")
	to, _ := core.ParseDate("2026-08-26")

	total, err := repo.TotalBetween(ctx, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if total.Cents != 50000 {
		t.Errorf("total = %d, want 50000 (range is inclusive)", total.Cents)
	}

	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Category != "transport" {
		t.Errorf("recent %+v", recent)
	}

	byCat, err := repo.CategoryTotals(ctx, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(byCat) != 2 || byCat[0].Category != "transport" || byCat[0].Total.Cents != 30000 {
		t.Errorf("category totals %+v", byCat)
	}

	daily, err := repo.DailyTotals(ctx, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(daily) != 2 || daily[0].Date != "2026-08-25" {
		t.Errorf("daily totals %+v", daily)
	}
}

func TestMonthlyTotalsWindow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	addExpense(t, repo, 10000, "food", "2026-06-15", "09:00:00")
	addExpense(t, repo, 20000, "food", "2026-08-10", "10:00:00")
	addExpense(t, repo, 99900, "food", "2025-12-31", "10:00:00") // outside the window

	totals, err := repo.MonthlyTotals(ctx, 3, core.NewDate(2026, 8, 26))
	if err != nil {
		t.Fatal(err)
	}
	if len(totals) != 2 {
		t.Fatalf("months with spend = %d, want 2: %+v", len(totals), totals)
	}
	if totals[0].Month != "2026-06" || totals[0].Total.Cents != 10000 {
		t.Errorf("totals[0] = %+v", totals[0])
	}
	if totals[1].Month != "2026-08" || totals[1].Total.Cents != 20000 {
		t.Errorf("totals[1] = %+v", totals[1])
	}
}

func TestBackupBookkeeping(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := addExpense(t, repo, 10000, "food", "2026-08-24", "09:00:00")
	second := addExpense(t, repo, 20000, "food", "2026-08-25", "10:00:00")

	pending, err := repo.PendingBackup(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("pending %+v, want both entries oldest first", pending)
	}

	if err := repo.MarkBackedUp(ctx, []int64{first.ID}); err != nil {
		t.Fatal(err)
	}
	pending, err = repo.PendingBackup(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("pending after mark %+v", pending)
	}

	// Marking nothing is a no-op.
	if err := repo.MarkBackedUp(ctx, nil); err != nil {
		t.Fatal(err)
	}
}
