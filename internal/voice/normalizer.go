// Package voice turns free-form command transcripts into validated
// ledger intents. It is deterministic pattern matching end to end:
// a lexical normalizer, an ordered grammar table, and an ambiguity
// resolver that trades unresolved categories for a confirmation
// round-trip instead of guessing.
package voice

import (
	"regexp"
	"strings"
	"time"

	"voxpense/internal/core"
)

// Normalized is the normalizer's view of one transcript: the cleaned
// text plus every slot value that can be read off without knowing the
// intent. It is a pure function of the transcript and the clock.
type Normalized struct {
	Raw  string
	Text string // lower-cased, whitespace-collapsed

	AmountCents int64 // 0 when the matched number was invalid or non-positive
	HasAmount   bool  // a numeric or spelled-out amount token was found

	CategoryFragment string // text after to/on/for/under, cleaned; "" if none

	Date    core.Date // spoken date, if any ("yesterday", "2025-03-01", "1/3/2025")
	HasDate bool
}

var (
	currencyPrefixRe = regexp.MustCompile(`(?:₹|\$|€|£|rs\.?|rupees?|inr|usd|dollars?|bucks|euros?|pounds?)\s*(-?\d+(?:[,\s]\d{3})*(?:\.\d+)?)`)
	currencySuffixRe = regexp.MustCompile(`(-?\d+(?:[,\s]\d{3})*(?:\.\d+)?)\s*(?:₹|\$|€|£|rs\.?|rupees?|inr|usd|dollars?|bucks|euros?|pounds?)\b`)
	bareNumberRe     = regexp.MustCompile(`-?\d+(?:[,\s]\d{3})*(?:\.\d+)?`)

	fragmentRe = regexp.MustCompile(`\b(?:to|on|for|under)\s+([a-z0-9 '&/-]+)`)

	dateISORe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dateSlashRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

	wordRe = regexp.MustCompile(`[a-z₹$€£]+`)
)

// amountContextWords are the tokens that mark a nearby number as a
// money amount rather than an incidental digit.
var amountContextWords = map[string]struct{}{
	"add": {}, "added": {}, "adding": {},
	"amount": {}, "cost": {}, "expense": {},
	"log": {}, "logged": {}, "logging": {},
	"pay": {}, "paid": {}, "paying": {},
	"purchase": {}, "purchased": {},
	"record": {}, "recorded": {}, "recording": {},
	"set": {}, "spend": {}, "spending": {}, "spent": {},
	"to": {}, "for": {}, "on": {}, "under": {},
}

var currencyWords = map[string]struct{}{
	"₹": {}, "rs": {}, "rs.": {}, "rupee": {}, "rupees": {}, "inr": {},
	"$": {}, "usd": {}, "dollar": {}, "dollars": {}, "bucks": {},
	"€": {}, "euro": {}, "euros": {}, "£": {}, "pound": {}, "pounds": {},
}

// dateStopWords are removed from category fragments so "food yesterday"
// and "food on monday" both resolve as "food".
var dateStopWords = map[string]struct{}{
	"today": {}, "yesterday": {}, "tomorrow": {}, "tonight": {}, "yday": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
	"last": {}, "this": {}, "next": {}, "week": {}, "month": {}, "year": {},
}

// Normalize cleans a transcript and extracts the intent-independent
// slots: amount, category fragment, and spoken date. now anchors
// relative dates.
func Normalize(transcript string, now time.Time) Normalized {
	raw := strings.TrimSpace(transcript)
	text := strings.ToLower(raw)
	text = strings.Join(strings.Fields(text), " ")

	n := Normalized{Raw: raw, Text: text}
	if text == "" {
		return n
	}

	if cents, ok := extractAmount(text); ok {
		n.HasAmount = true
		n.AmountCents = cents
	}
	n.CategoryFragment = extractFragment(text)
	if d, ok := extractDate(text, now); ok {
		n.Date = d
		n.HasDate = true
	}
	return n
}

// extractAmount finds the transcript's money amount. Currency-anchored
// numbers win, then bare numbers with amount context nearby, then
// spelled-out cardinals. Invalid or non-positive matches still count as
// found (cents 0) so the resolver can reject them as validation errors
// rather than parse failures.
func extractAmount(text string) (int64, bool) {
	if m := currencyPrefixRe.FindStringSubmatch(text); m != nil {
		return numberToCents(m[1]), true
	}
	if m := currencySuffixRe.FindStringSubmatch(text); m != nil {
		return numberToCents(m[1]), true
	}
	for _, loc := range bareNumberRe.FindAllStringIndex(text, -1) {
		if isDateDigits(text, loc[0], loc[1]) {
			continue
		}
		if hasAmountContext(contextWindow(text, loc[0], loc[1])) {
			return numberToCents(text[loc[0]:loc[1]]), true
		}
	}
	if cents, ok := extractWordAmount(text); ok {
		return cents, true
	}
	return 0, false
}

// numberToCents strips thousands separators and converts; returns 0 for
// non-positive or malformed numbers (the found-but-invalid signal).
func numberToCents(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0
	}
	return cents
}

// isDateDigits reports whether the matched digits belong to a date
// literal like 2025-03-01 or 1/3/2025 rather than an amount.
func isDateDigits(text string, start, end int) bool {
	lo := start - 5
	if lo < 0 {
		lo = 0
	}
	hi := end + 11
	if hi > len(text) {
		hi = len(text)
	}
	window := text[lo:hi]
	return dateISORe.MatchString(window) || dateSlashRe.MatchString(window)
}

func contextWindow(text string, start, end int) string {
	lo := start - 12
	if lo < 0 {
		lo = 0
	}
	hi := end + 12
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

func hasAmountContext(fragment string) bool {
	for _, tok := range wordRe.FindAllString(fragment, -1) {
		if _, ok := amountContextWords[tok]; ok {
			return true
		}
		if _, ok := currencyWords[tok]; ok {
			return true
		}
	}
	return strings.ContainsAny(fragment, "₹$€£")
}

// extractFragment returns the first non-empty category fragment after a
// to/on/for/under preposition. Date words and digits are stripped so
// "to food yesterday" yields "food"; a clause that is nothing but date
// words ("on monday") is skipped and the next clause is tried.
func extractFragment(text string) string {
	for _, m := range fragmentRe.FindAllStringSubmatch(text, -1) {
		if frag := cleanFragmentWords(m[1]); frag != "" {
			return frag
		}
	}
	return ""
}

// prepositions can appear inside a greedy fragment capture ("on monday
// to food" captures "monday to food"); they never name a category.
var prepositionWords = map[string]struct{}{
	"to": {}, "on": {}, "for": {}, "under": {}, "at": {}, "in": {},
}

func cleanFragmentWords(fragment string) string {
	var kept []string
	for _, w := range strings.Fields(fragment) {
		w = strings.Trim(w, "'&/-")
		if w == "" {
			continue
		}
		if _, ok := dateStopWords[w]; ok {
			continue
		}
		if _, ok := currencyWords[w]; ok {
			continue
		}
		if _, ok := numberWordTokens[w]; ok {
			continue
		}
		if _, ok := prepositionWords[w]; ok {
			continue
		}
		if strings.ContainsAny(w, "0123456789") {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// extractDate recognizes the spoken dates the grammar supports: the
// relative today/yesterday keywords, ISO dates, and d/m/yyyy.
func extractDate(text string, now time.Time) (core.Date, bool) {
	if m := dateISORe.FindStringSubmatch(text); m != nil {
		if d, err := core.ParseDate(m[0]); err == nil {
			return d, true
		}
	}
	if m := dateSlashRe.FindStringSubmatch(text); m != nil {
		day := atoiSafe(m[1])
		month := atoiSafe(m[2])
		year := atoiSafe(m[3])
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			return core.NewDate(year, month, day), true
		}
	}
	if strings.Contains(text, "yesterday") || strings.Contains(text, "yday") {
		return core.Today(now.AddDate(0, 0, -1)), true
	}
	if strings.Contains(text, "today") || strings.Contains(text, "tonight") {
		return core.Today(now), true
	}
	return core.Date{}, false
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
