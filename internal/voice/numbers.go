package voice

import "strings"

// Spelled-out cardinals up to four digits ("two hundred fifty",
// "one thousand", "twelve hundred"). Anything larger has to be dictated
// in digits.

var numberUnits = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19,
}

var numberTens = map[string]int64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// numberWordTokens is every token the word-number scanner consumes,
// used by the fragment cleaner to keep amounts out of category text.
var numberWordTokens = func() map[string]struct{} {
	set := map[string]struct{}{
		"hundred": {}, "thousand": {}, "and": {}, "a": {},
	}
	for w := range numberUnits {
		set[w] = struct{}{}
	}
	for w := range numberTens {
		set[w] = struct{}{}
	}
	return set
}()

const maxWordAmount = 9999

// extractWordAmount scans the text for a run of number words and
// evaluates it. Only the first run is considered; runs that evaluate
// past four digits are rejected.
func extractWordAmount(text string) (int64, bool) {
	words := strings.Fields(text)
	for i := 0; i < len(words); i++ {
		if !isNumberStart(words[i]) {
			continue
		}
		value, consumed, ok := parseNumberRun(words[i:])
		if !ok || consumed == 0 {
			continue
		}
		if value <= 0 || value > maxWordAmount {
			return 0, true // found but invalid, resolver rejects it
		}
		return value * 100, true
	}
	return 0, false
}

func isNumberStart(w string) bool {
	if _, ok := numberUnits[w]; ok {
		return true
	}
	_, ok := numberTens[w]
	return ok
}

// parseNumberRun evaluates a contiguous run of number words starting at
// words[0], e.g. ["two","hundred","and","fifty","to",...] -> 250, 4.
func parseNumberRun(words []string) (int64, int, bool) {
	var total, current int64
	consumed := 0
	for i, w := range words {
		switch {
		case w == "and" || w == "a":
			// glue words inside a run only
			if consumed == 0 {
				return 0, 0, false
			}
			consumed = i + 1
		case w == "hundred":
			if current == 0 {
				current = 1
			}
			current *= 100
			consumed = i + 1
		case w == "thousand":
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0
			consumed = i + 1
		default:
			if v, ok := numberUnits[w]; ok {
				current += v
				consumed = i + 1
				continue
			}
			if v, ok := numberTens[w]; ok {
				current += v
				consumed = i + 1
				continue
			}
			return total + current, consumed, consumed > 0
		}
	}
	return total + current, consumed, consumed > 0
}
