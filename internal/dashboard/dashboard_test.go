package dashboard

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"voxpense/internal/budget"
	"voxpense/internal/catalog"
	"voxpense/internal/core"
	"voxpense/internal/ledger/memory"
)

var now = time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	ctx := context.Background()
	entries := []struct {
		cents int64
		cat   string
		date  string
	}{
		{50000, "food", "2026-08-26"},  // today
		{20000, "food", "2026-08-22"},  // this week
		{30000, "rent", "2026-08-02"},  // this month only
		{10000, "food", "2026-07-10"},  // previous month
	}
	for _, e := range entries {
		d, _ := core.ParseDate(e.date)
		_, err := s.Append(ctx, core.Expense{
			Amount:    core.Money{Cents: e.cents},
			Category:  e.cat,
			Date:      d,
			TimeOfDay: "12:00:00",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func newAssembler(t *testing.T) (*Assembler, *memory.Store) {
	t.Helper()
	store := seedStore(t)
	return NewAssembler(store, budget.NewEvaluator(catalog.Default())), store
}

func TestAssembleTotals(t *testing.T) {
	a, _ := newAssembler(t)
	snap, err := a.Assemble(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if snap.TodayCents != 50000 {
		t.Errorf("today = %d, want 50000", snap.TodayCents)
	}
	if snap.WeekCents != 70000 {
		t.Errorf("week = %d, want 70000", snap.WeekCents)
	}
	if snap.MonthCents != 100000 {
		t.Errorf("month = %d, want 100000", snap.MonthCents)
	}
}

func TestAssembleDailySeriesZeroFilled(t *testing.T) {
	a, _ := newAssembler(t)
	snap, err := a.Assemble(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Daily) != 7 {
		t.Fatalf("daily points = %d, want 7", len(snap.Daily))
	}
	if snap.Daily[0].Label != "2026-08-20" || snap.Daily[6].Label != "2026-08-26" {
		t.Errorf("labels span %s..%s", snap.Daily[0].Label, snap.Daily[6].Label)
	}
	var zeros int
	for _, p := range snap.Daily {
		if p.Cents == 0 {
			zeros++
		}
	}
	if zeros != 5 {
		t.Errorf("zero days = %d, want 5 (only two days carry spend this week)", zeros)
	}
}

func TestAssembleMonthlySeriesZeroFilled(t *testing.T) {
	a, _ := newAssembler(t)
	snap, err := a.Assemble(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Monthly) != 6 {
		t.Fatalf("monthly points = %d, want 6", len(snap.Monthly))
	}
	if snap.Monthly[0].Label != "2026-03" || snap.Monthly[5].Label != "2026-08" {
		t.Errorf("labels span %s..%s", snap.Monthly[0].Label, snap.Monthly[5].Label)
	}
	if snap.Monthly[4].Cents != 10000 {
		t.Errorf("2026-07 = %d, want 10000", snap.Monthly[4].Cents)
	}
	if snap.Monthly[5].Cents != 100000 {
		t.Errorf("2026-08 = %d, want 100000", snap.Monthly[5].Cents)
	}
}

func TestAssembleRecentAndBudgets(t *testing.T) {
	a, _ := newAssembler(t)
	snap, err := a.Assemble(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Recent) != 4 {
		t.Fatalf("recent = %d, want 4", len(snap.Recent))
	}
	if snap.Recent[0].Category != "food" || snap.Recent[0].Date != "2026-08-26" {
		t.Errorf("recent[0] = %+v, want today's entry first", snap.Recent[0])
	}
	if snap.Recent[0].Amount != "₹500" {
		t.Errorf("recent[0].Amount = %q", snap.Recent[0].Amount)
	}
	// Month-to-date: food ₹700 of ₹10000 (7%), no rent limit configured.
	for _, b := range snap.Budgets {
		if b.Category == "food" && b.Level != budget.LevelOK {
			t.Errorf("food budget level = %s, want ok", b.Level)
		}
		if b.Category == "rent" {
			t.Error("rent has no limit and must not appear in budgets")
		}
	}
}

func TestAssembleSummaryTexts(t *testing.T) {
	a, _ := newAssembler(t)
	snap, err := a.Assemble(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(snap.WeeklySummary, "₹700 this week") {
		t.Errorf("weekly summary %q", snap.WeeklySummary)
	}
	if !strings.Contains(snap.MonthlySummary, "₹1000 in August 2026") {
		t.Errorf("monthly summary %q", snap.MonthlySummary)
	}
	if len(snap.BudgetAlerts) != 0 {
		t.Errorf("nothing is near a limit, alerts = %v", snap.BudgetAlerts)
	}
}

// Alerts list every category past its warn threshold, most stretched
// first, each as a ready-to-show message.
func TestAssembleBudgetAlertsOrdered(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	// transport: ₹3500 of ₹4000 (87.5%, warn at 75%);
	// food: ₹10500 of ₹10000 (105%, over).
	for _, e := range []struct {
		cents int64
		cat   string
	}{{350000, "transport"}, {1050000, "food"}} {
		if _, err := s.Append(ctx, core.Expense{
			Amount:    core.Money{Cents: e.cents},
			Category:  e.cat,
			Date:      core.NewDate(2026, 8, 26),
			TimeOfDay: "12:00:00",
		}); err != nil {
			t.Fatal(err)
		}
	}

	a := NewAssembler(s, budget.NewEvaluator(catalog.Default()))
	snap, err := a.Assemble(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.BudgetAlerts) != 2 {
		t.Fatalf("alerts = %v", snap.BudgetAlerts)
	}
	if !strings.Contains(snap.BudgetAlerts[0], "over budget") || !strings.Contains(snap.BudgetAlerts[0], "food") {
		t.Errorf("alerts[0] = %q, want food over budget first", snap.BudgetAlerts[0])
	}
	if !strings.Contains(snap.BudgetAlerts[1], "transport") {
		t.Errorf("alerts[1] = %q", snap.BudgetAlerts[1])
	}
}

// Every payload key is deliberate: snake_case throughout, amounts as
// bare cent integers.
func TestSnapshotJSONShape(t *testing.T) {
	a, _ := newAssembler(t)
	snap, err := a.Assemble(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	for _, want := range []string{
		`"weekly_summary_text"`, `"monthly_summary_text"`, `"budget_alerts"`,
		`"by_category"`, `"total_cents"`, `"spent_cents"`, `"limit_cents"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("snapshot JSON missing %s:\n%s", want, body)
		}
	}
	for _, reject := range []string{`"Cents"`, `"Category"`, `"Total"`} {
		if strings.Contains(body, reject) {
			t.Errorf("snapshot JSON leaks Go-cased key %s:\n%s", reject, body)
		}
	}
	if !strings.Contains(body, `"spent_cents":70000`) {
		t.Errorf("spent_cents should be a bare integer:\n%s", body)
	}
}

// Assembly is a pure read: two consecutive calls see identical state.
func TestAssembleIdempotent(t *testing.T) {
	a, _ := newAssembler(t)
	first, err := a.Assemble(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Assemble(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("consecutive snapshots differ")
	}
}
