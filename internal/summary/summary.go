// Package summary renders the spoken-style weekly and monthly summary
// replies.
package summary

import (
	"fmt"
	"strings"

	"voxpense/internal/budget"
	"voxpense/internal/core"
)

const topCategories = 3

// Weekly renders the reply for the trailing seven-day window ending at
// to (inclusive).
func Weekly(total core.Money, byCategory []core.CategoryTotal, from, to core.Date) string {
	if total.Cents == 0 {
		return fmt.Sprintf("No expenses recorded between %s and %s.", from, to)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You spent %s this week (%s to %s).", core.FormatRupees(total.Cents), from, to)
	appendTop(&b, byCategory)
	return b.String()
}

// Monthly renders the reply for the current calendar month, including
// the standing of any category that is past its warn threshold.
func Monthly(total core.Money, byCategory []core.CategoryTotal, statuses []budget.Status, month string) string {
	if total.Cents == 0 {
		return fmt.Sprintf("No expenses recorded in %s yet.", month)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You spent %s in %s.", core.FormatRupees(total.Cents), month)
	appendTop(&b, byCategory)
	for _, s := range statuses {
		switch s.Level {
		case budget.LevelOver:
			fmt.Fprintf(&b, " %s is over budget at %.0f%%.", s.Category, s.Percentage)
		case budget.LevelWarning:
			fmt.Fprintf(&b, " %s is at %.0f%% of its budget.", s.Category, s.Percentage)
		}
	}
	return b.String()
}

func appendTop(b *strings.Builder, byCategory []core.CategoryTotal) {
	n := len(byCategory)
	if n == 0 {
		return
	}
	if n > topCategories {
		n = topCategories
	}
	parts := make([]string, 0, n)
	for _, ct := range byCategory[:n] {
		parts = append(parts, fmt.Sprintf("%s %s", ct.Category, core.FormatRupees(ct.Total.Cents)))
	}
	fmt.Fprintf(b, " Top categories: %s.", strings.Join(parts, ", "))
}
