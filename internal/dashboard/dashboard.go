// Package dashboard assembles the read-only snapshot the client renders
// after every command. Assembly is a pure read; calling it twice in a
// row yields the same snapshot.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"voxpense/internal/budget"
	"voxpense/internal/core"
	"voxpense/internal/ledger"
	"voxpense/internal/summary"
)

const (
	dailySeriesDays    = 7
	monthlySeriesSpan  = 6
	recentEntriesCount = 5
)

// Entry is one recent expense as the client displays it.
type Entry struct {
	ID       int64  `json:"id"`
	Amount   string `json:"amount"`
	Cents    int64  `json:"cents"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Time     string `json:"time,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Point is one bar of a chart series.
type Point struct {
	Label string `json:"label"` // day or month
	Cents int64  `json:"cents"`
}

// Snapshot is the full dashboard state.
type Snapshot struct {
	TodayCents int64 `json:"today_cents"`
	WeekCents  int64 `json:"week_cents"`
	MonthCents int64 `json:"month_cents"`

	WeeklySummary  string `json:"weekly_summary_text"`
	MonthlySummary string `json:"monthly_summary_text"`

	Recent     []Entry              `json:"recent"`
	ByCategory []core.CategoryTotal `json:"by_category"`
	Budgets    []budget.Status      `json:"budgets"`

	// BudgetAlerts holds the message for every category past its warn
	// threshold, most stretched first.
	BudgetAlerts []string `json:"budget_alerts"`

	Daily   []Point `json:"daily"`   // trailing week, zero-filled
	Monthly []Point `json:"monthly"` // trailing half year, zero-filled
}

// Assembler builds snapshots from the ledger reader and the budget
// evaluator.
type Assembler struct {
	reader    ledger.Reader
	evaluator *budget.Evaluator
}

func NewAssembler(reader ledger.Reader, evaluator *budget.Evaluator) *Assembler {
	return &Assembler{reader: reader, evaluator: evaluator}
}

// Assemble builds the snapshot anchored at now.
func (a *Assembler) Assemble(ctx context.Context, now time.Time) (Snapshot, error) {
	today := core.Today(now)
	weekStart := today.AddDays(-(dailySeriesDays - 1))
	monthStart := core.NewDate(now.Year(), int(now.Month()), 1)

	var snap Snapshot

	todayTotal, err := a.reader.TotalBetween(ctx, today, today)
	if err != nil {
		return Snapshot{}, fmt.Errorf("today total: %w", err)
	}
	snap.TodayCents = todayTotal.Cents

	weekTotal, err := a.reader.TotalBetween(ctx, weekStart, today)
	if err != nil {
		return Snapshot{}, fmt.Errorf("week total: %w", err)
	}
	snap.WeekCents = weekTotal.Cents

	monthTotal, err := a.reader.TotalBetween(ctx, monthStart, today)
	if err != nil {
		return Snapshot{}, fmt.Errorf("month total: %w", err)
	}
	snap.MonthCents = monthTotal.Cents

	recent, err := a.reader.Recent(ctx, recentEntriesCount)
	if err != nil {
		return Snapshot{}, fmt.Errorf("recent entries: %w", err)
	}
	snap.Recent = make([]Entry, 0, len(recent))
	for _, e := range recent {
		snap.Recent = append(snap.Recent, Entry{
			ID:       e.ID,
			Amount:   core.FormatRupees(e.Amount.Cents),
			Cents:    e.Amount.Cents,
			Category: e.Category,
			Date:     e.Date.String(),
			Time:     e.TimeOfDay,
			Note:     e.Description,
		})
	}

	byCategory, err := a.reader.CategoryTotals(ctx, monthStart, today)
	if err != nil {
		return Snapshot{}, fmt.Errorf("category totals: %w", err)
	}
	snap.ByCategory = byCategory
	snap.Budgets = a.evaluator.Statuses(byCategory)
	snap.BudgetAlerts = a.evaluator.Alerts(snap.Budgets)

	weekByCategory, err := a.reader.CategoryTotals(ctx, weekStart, today)
	if err != nil {
		return Snapshot{}, fmt.Errorf("week category totals: %w", err)
	}
	snap.WeeklySummary = summary.Weekly(weekTotal, weekByCategory, weekStart, today)
	snap.MonthlySummary = summary.Monthly(monthTotal, byCategory, snap.Budgets, now.Format("January 2006"))

	daily, err := a.reader.DailyTotals(ctx, weekStart, today)
	if err != nil {
		return Snapshot{}, fmt.Errorf("daily totals: %w", err)
	}
	snap.Daily = fillDaily(daily, weekStart, dailySeriesDays)

	monthly, err := a.reader.MonthlyTotals(ctx, monthlySeriesSpan, today)
	if err != nil {
		return Snapshot{}, fmt.Errorf("monthly totals: %w", err)
	}
	snap.Monthly = fillMonthly(monthly, now, monthlySeriesSpan)

	return snap, nil
}

// fillDaily expands sparse day totals into a dense series so chart bars
// appear even for days with no spending.
func fillDaily(totals []core.DayTotal, start core.Date, days int) []Point {
	byDay := map[string]int64{}
	for _, t := range totals {
		byDay[t.Date] = t.Total.Cents
	}
	out := make([]Point, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDays(i).String()
		out = append(out, Point{Label: day, Cents: byDay[day]})
	}
	return out
}

func fillMonthly(totals []core.MonthTotal, now time.Time, span int) []Point {
	byMonth := map[string]int64{}
	for _, t := range totals {
		byMonth[t.Month] = t.Total.Cents
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(span - 1), 0)
	out := make([]Point, 0, span)
	for i := 0; i < span; i++ {
		month := first.AddDate(0, i, 0).Format("2006-01")
		out = append(out, Point{Label: month, Cents: byMonth[month]})
	}
	return out
}
