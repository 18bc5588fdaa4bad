// Package catalog holds the category catalog: the canonical expense
// categories a deployment accepts, the spoken synonyms that map onto
// them, and the monthly budget limits used for alerts.
//
// A Catalog is immutable once built and is passed explicitly to the
// components that need it, so the engine stays a pure function of its
// inputs.
package catalog

import (
	"fmt"
	"strings"

	"voxpense/internal/core"
)

// Category is one canonical catalog entry.
type Category struct {
	Key       string
	Synonyms  []string
	Limit     core.Money // zero cents means no budget configured
	WarnRatio float64    // fraction of the limit that triggers a warning
}

// HasLimit reports whether a budget limit is configured.
func (c Category) HasLimit() bool {
	return c.Limit.Cents > 0
}

// Catalog is an ordered, read-only set of categories. Declaration
// order is significant: it breaks ties everywhere a deterministic
// ordering is needed (candidate lists, alert ordering).
type Catalog struct {
	entries []Category
	byKey   map[string]int
}

// DefaultWarnRatio is applied when a category does not configure its own.
const DefaultWarnRatio = 0.8

// New builds a catalog from entries, preserving their order. Keys are
// lower-cased; duplicate keys are rejected.
func New(entries []Category) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]int, len(entries))}
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Key))
		if key == "" {
			return nil, fmt.Errorf("catalog entry with empty key")
		}
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate catalog key %q", key)
		}
		if e.WarnRatio <= 0 || e.WarnRatio > 1 {
			e.WarnRatio = DefaultWarnRatio
		}
		syns := make([]string, 0, len(e.Synonyms)+1)
		seen := map[string]struct{}{key: {}}
		syns = append(syns, key)
		for _, s := range e.Synonyms {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			syns = append(syns, s)
		}
		e.Key = key
		e.Synonyms = syns
		c.byKey[key] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Keys returns the canonical category keys in declaration order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns the catalog entries in declaration order. The
// returned slice is a copy; the catalog itself stays immutable.
func (c *Catalog) Entries() []Category {
	out := make([]Category, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the entry for a canonical key.
func (c *Catalog) Lookup(key string) (Category, bool) {
	i, ok := c.byKey[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Category{}, false
	}
	return c.entries[i], true
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Position returns the declaration index of a key, or the catalog
// length for unknown keys so they sort last.
func (c *Catalog) Position(key string) int {
	if i, ok := c.byKey[strings.ToLower(key)]; ok {
		return i
	}
	return len(c.entries)
}

// Match resolves a free-text category fragment against the catalog.
//
// Resolution runs in two tiers. An exact synonym hit (the whole
// fragment or any single word of it) wins immediately and returns one
// candidate. Otherwise candidates are collected with tolerance: a
// synonym within edit distance 1 of a fragment word, or a synonym that
// the fragment is a prefix of (fragment at least 3 characters, so "ent"
// finds entertainment but "e" finds nothing). Candidates come back in
// catalog declaration order; zero or several candidates signal the
// caller to start a confirmation round-trip.
func (c *Catalog) Match(fragment string) []string {
	fragment = cleanFragment(fragment)
	if fragment == "" {
		return nil
	}
	words := strings.Fields(fragment)

	// Tier 1: exact synonym match.
	for _, e := range c.entries {
		for _, syn := range e.Synonyms {
			if fragment == syn {
				return []string{e.Key}
			}
			for _, w := range words {
				if w == syn {
					return []string{e.Key}
				}
			}
		}
	}

	// Tier 2: tolerant match. Prefix hits outrank edit-distance hits,
	// so "ent" resolves to entertainment alone instead of also pulling
	// in rent via a one-edit insertion.
	var prefix, edited []string
	for _, e := range c.entries {
		switch {
		case c.prefixHit(e, words):
			prefix = append(prefix, e.Key)
		case c.editHit(e, words):
			edited = append(edited, e.Key)
		}
	}
	if len(prefix) > 0 {
		return prefix
	}
	return edited
}

func (c *Catalog) prefixHit(e Category, words []string) bool {
	for _, syn := range e.Synonyms {
		for _, w := range words {
			if len(w) >= 3 && strings.HasPrefix(syn, w) {
				return true
			}
		}
	}
	return false
}

func (c *Catalog) editHit(e Category, words []string) bool {
	for _, syn := range e.Synonyms {
		for _, w := range words {
			if editDistanceAtMostOne(w, syn) {
				return true
			}
		}
	}
	return false
}

// cleanFragment lower-cases and strips everything but letters, digits
// and spaces, collapsing runs of whitespace.
func cleanFragment(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// editDistanceAtMostOne reports whether a and b are within Levenshtein
// distance 1. Cheaper than a full DP table for the only tolerance the
// matcher needs.
func editDistanceAtMostOne(a, b string) bool {
	la, lb := len(a), len(b)
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}
	if lb-la > 1 {
		return false
	}
	if la == lb {
		diff := 0
		for i := 0; i < la; i++ {
			if a[i] != b[i] {
				diff++
				if diff > 1 {
					return false
				}
			}
		}
		return true
	}
	// lb == la+1: b must be a with one insertion
	i, j := 0, 0
	skipped := false
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		if skipped {
			return false
		}
		skipped = true
		j++
	}
	return true
}
