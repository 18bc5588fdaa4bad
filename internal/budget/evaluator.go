// Package budget evaluates month-to-date spending against the
// per-category limits declared in the catalog.
package budget

import (
	"fmt"
	"sort"

	"voxpense/internal/catalog"
	"voxpense/internal/core"
)

// Level classifies how far into a limit a category has spent.
type Level string

const (
	LevelOK      Level = "ok"
	LevelWarning Level = "warning"
	LevelOver    Level = "over_budget"
)

// Status is one category's month-to-date standing.
type Status struct {
	Category   string     `json:"category"`
	Spent      core.Money `json:"spent_cents"`
	Limit      core.Money `json:"limit_cents"`
	Percentage float64    `json:"percentage"`
	Level      Level      `json:"level"`
}

// Alert is the user-facing message attached to a reply when an add
// pushes a category past its warning or limit threshold.
type Alert struct {
	Category   string  `json:"category"`
	Level      Level   `json:"level"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
}

// Evaluator derives budget standing from category totals. It holds no
// state beyond the catalog, so evaluation is idempotent.
type Evaluator struct {
	catalog *catalog.Catalog
}

func NewEvaluator(cat *catalog.Catalog) *Evaluator {
	return &Evaluator{catalog: cat}
}

// levelFor buckets a spent percentage. Warnings open strictly above the
// category's warn ratio and close at 100; anything above 100 is over.
func levelFor(percentage float64, warnRatio float64) Level {
	switch {
	case percentage > 100:
		return LevelOver
	case percentage > warnRatio*100:
		return LevelWarning
	default:
		return LevelOK
	}
}

// Statuses returns the standing of every limited category, ordered by
// percentage descending with catalog order breaking ties. Categories
// without a limit are skipped.
func (ev *Evaluator) Statuses(totals []core.CategoryTotal) []Status {
	spent := map[string]int64{}
	for _, t := range totals {
		spent[t.Category] += t.Total.Cents
	}

	var out []Status
	for _, entry := range ev.catalog.Entries() {
		if !entry.HasLimit() {
			continue
		}
		s := Status{
			Category: entry.Key,
			Spent:    core.Money{Cents: spent[entry.Key]},
			Limit:    entry.Limit,
		}
		s.Percentage = float64(s.Spent.Cents) / float64(s.Limit.Cents) * 100
		s.Level = levelFor(s.Percentage, entry.WarnRatio)
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return ev.catalog.Position(out[i].Category) < ev.catalog.Position(out[j].Category)
	})
	return out
}

// AlertFor evaluates a single category after an add. It returns nil
// when the category has no limit or is still under its warn threshold.
func (ev *Evaluator) AlertFor(category string, monthSpent core.Money) *Alert {
	entry, ok := ev.catalog.Lookup(category)
	if !ok || !entry.HasLimit() {
		return nil
	}
	percentage := float64(monthSpent.Cents) / float64(entry.Limit.Cents) * 100
	level := levelFor(percentage, entry.WarnRatio)
	if level == LevelOK {
		return nil
	}

	return &Alert{
		Category:   category,
		Level:      level,
		Percentage: percentage,
		Message:    alertMessage(category, level, percentage, monthSpent, entry.Limit),
	}
}

// Alerts renders the user-facing message for every status past its warn
// threshold, preserving the statuses' order.
func (ev *Evaluator) Alerts(statuses []Status) []string {
	var out []string
	for _, s := range statuses {
		if s.Level == LevelOK {
			continue
		}
		out = append(out, alertMessage(s.Category, s.Level, s.Percentage, s.Spent, s.Limit))
	}
	return out
}

func alertMessage(category string, level Level, percentage float64, spent, limit core.Money) string {
	if level == LevelOver {
		return fmt.Sprintf("You're over budget for %s: %s of %s (%.0f%%).",
			category, core.FormatRupees(spent.Cents), core.FormatRupees(limit.Cents), percentage)
	}
	return fmt.Sprintf("Heads up: %s is at %.0f%% of its %s budget.",
		category, percentage, core.FormatRupees(limit.Cents))
}
