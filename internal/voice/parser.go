package voice

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind enumerates the commands the grammar understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindAdd
	KindDeleteLast
	KindQuery
	KindShowRecent
	KindWeeklySummary
	KindMonthlySummary
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindDeleteLast:
		return "delete_last"
	case KindQuery:
		return "query"
	case KindShowRecent:
		return "show_recent"
	case KindWeeklySummary:
		return "weekly_summary"
	case KindMonthlySummary:
		return "monthly_summary"
	default:
		return "unknown"
	}
}

// Intent is the parser's output: a command kind plus the raw slot
// values the grammar captured. Unknown intents carry a human-readable
// reason instead of slots.
type Intent struct {
	Kind   Kind
	Slots  map[string]string
	Reason string
}

// Slot names used across the grammar.
const (
	SlotAmount   = "amount"   // cents, decimal string
	SlotCategory = "category" // raw fragment, not yet canonical
	SlotPeriod   = "period"   // today | week | month
	SlotCount    = "count"    // recent-entry count, decimal string
	SlotDate     = "date"     // YYYY-MM-DD
)

// grammarRule is one row of the ordered grammar table. match decides
// whether the rule fires on the normalized transcript; extract builds
// the intent. First matching rule wins.
type grammarRule struct {
	kind    Kind
	match   func(Normalized) bool
	extract func(Normalized) Intent
}

var (
	addVerbRe    = regexp.MustCompile(`\b(add|added|spent|spend|paid|pay|bought|buy|purchased|purchase|record|recorded|log|logged|note|noted|save|put)\b`)
	deleteVerbRe = regexp.MustCompile(`\b(delete|remove|removed|undo|erase|scratch|cancel)\b`)
	deleteLastRe = regexp.MustCompile(`\b(last|latest|recent|previous|that)\b`)
	queryRe      = regexp.MustCompile(`\b(balance|how much|total|what did i spend|what have i spent|spending so far)\b`)
	recentRe     = regexp.MustCompile(`\b(show|list|display|view|see)\b.*\b(recent|last|expenses|entries|history)\b|\brecent (expenses|entries|transactions)\b`)
	weeklyRe     = regexp.MustCompile(`\b(weekly|this week'?s?|past week)\b.*\b(summary|report|breakdown|spending|stats|overview)\b|\bweekly summary\b`)
	monthlyRe    = regexp.MustCompile(`\b(monthly|this month'?s?|past month)\b.*\b(summary|report|breakdown|spending|stats|overview)\b|\bmonthly summary\b`)

	periodWeekRe  = regexp.MustCompile(`\b(this week|past week|weekly|week)\b`)
	periodMonthRe = regexp.MustCompile(`\b(this month|past month|monthly|month)\b`)
	countRe       = regexp.MustCompile(`\b(\d{1,3})\b`)
)

// grammar is the ordered rule table. Add is first and requires both a
// verb and an amount token, so amount-less questions fall through to
// the read-only rules instead of becoming malformed adds.
var grammar = []grammarRule{
	{
		kind: KindAdd,
		match: func(n Normalized) bool {
			return addVerbRe.MatchString(n.Text) && n.HasAmount
		},
		extract: extractAdd,
	},
	{
		kind: KindDeleteLast,
		match: func(n Normalized) bool {
			return deleteVerbRe.MatchString(n.Text) && deleteLastRe.MatchString(n.Text)
		},
		extract: func(n Normalized) Intent {
			return Intent{Kind: KindDeleteLast, Slots: map[string]string{}}
		},
	},
	{
		kind: KindQuery,
		match: func(n Normalized) bool {
			return queryRe.MatchString(n.Text)
		},
		extract: extractQuery,
	},
	{
		kind: KindShowRecent,
		match: func(n Normalized) bool {
			return recentRe.MatchString(n.Text)
		},
		extract: extractShowRecent,
	},
	{
		kind: KindWeeklySummary,
		match: func(n Normalized) bool {
			return weeklyRe.MatchString(n.Text)
		},
		extract: func(n Normalized) Intent {
			return Intent{Kind: KindWeeklySummary, Slots: map[string]string{}}
		},
	},
	{
		kind: KindMonthlySummary,
		match: func(n Normalized) bool {
			return monthlyRe.MatchString(n.Text)
		},
		extract: func(n Normalized) Intent {
			return Intent{Kind: KindMonthlySummary, Slots: map[string]string{}}
		},
	},
}

// Parse runs the normalized transcript through the grammar table and
// returns the first matching intent, or an Unknown intent with a reason
// the caller can surface verbatim.
func Parse(n Normalized) Intent {
	if strings.TrimSpace(n.Text) == "" {
		return unknown("I didn't catch that. Try something like 'Add 500 to food'.")
	}
	for _, rule := range grammar {
		if rule.match(n) {
			return rule.extract(n)
		}
	}
	if addVerbRe.MatchString(n.Text) {
		return unknown("I couldn't find an amount in that. Try 'Add 500 to food'.")
	}
	return unknown("I didn't understand that. Try 'Add 500 to food' or 'Show recent expenses'.")
}

func unknown(reason string) Intent {
	return Intent{Kind: KindUnknown, Reason: reason}
}

func extractAdd(n Normalized) Intent {
	if n.CategoryFragment == "" {
		return unknown("I couldn't tell which category that was for. Try 'Add 500 to food'.")
	}
	slots := map[string]string{
		SlotAmount:   strconv.FormatInt(n.AmountCents, 10),
		SlotCategory: n.CategoryFragment,
	}
	if n.HasDate {
		slots[SlotDate] = n.Date.String()
	}
	return Intent{Kind: KindAdd, Slots: slots}
}

func extractQuery(n Normalized) Intent {
	period := "today"
	switch {
	case periodWeekRe.MatchString(n.Text):
		period = "week"
	case periodMonthRe.MatchString(n.Text):
		period = "month"
	}
	return Intent{Kind: KindQuery, Slots: map[string]string{SlotPeriod: period}}
}

func extractShowRecent(n Normalized) Intent {
	slots := map[string]string{}
	if m := countRe.FindStringSubmatch(n.Text); m != nil {
		slots[SlotCount] = m[1]
	}
	return Intent{Kind: KindShowRecent, Slots: slots}
}
