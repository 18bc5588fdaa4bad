package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"voxpense/internal/core"
)

// fileEntry is one category in the catalog JSON file. Limits are
// decimal strings ("10000" or "1250.50") so the file never carries
// binary float amounts. An ordered array keeps declaration order,
// which the matcher and the budget evaluator rely on for tie-breaks.
type fileEntry struct {
	Key      string   `json:"key"`
	Synonyms []string `json:"synonyms,omitempty"`
	Limit    string   `json:"limit,omitempty"`
	WarnAt   float64  `json:"warn_at,omitempty"`
}

type fileCatalog struct {
	Categories []fileEntry `json:"categories"`
	Defaults   struct {
		WarnAt float64 `json:"warn_at,omitempty"`
	} `json:"defaults"`
}

// LoadFile reads a catalog JSON file. Categories without a limit never
// produce budget alerts.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var fc fileCatalog
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	defaultWarn := fc.Defaults.WarnAt
	if defaultWarn <= 0 || defaultWarn > 1 {
		defaultWarn = DefaultWarnRatio
	}
	entries := make([]Category, 0, len(fc.Categories))
	for _, fe := range fc.Categories {
		e := Category{Key: fe.Key, Synonyms: fe.Synonyms, WarnRatio: fe.WarnAt}
		if e.WarnRatio <= 0 || e.WarnRatio > 1 {
			e.WarnRatio = defaultWarn
		}
		if fe.Limit != "" {
			cents, err := core.ParseDecimalToCents(fe.Limit)
			if err != nil {
				return nil, fmt.Errorf("catalog entry %q: limit %q: %w", fe.Key, fe.Limit, err)
			}
			e.Limit = core.Money{Cents: cents}
		}
		entries = append(entries, e)
	}
	return New(entries)
}

// Default returns the built-in catalog used when no catalog file is
// configured. Synonym sets cover the spoken variants and common typos
// seen in transcripts; limits are monthly, in rupees.
func Default() *Catalog {
	rupees := func(n int64) core.Money { return core.Money{Cents: n * 100} }
	c, err := New([]Category{
		{
			Key: "food",
			Synonyms: []string{
				"meal", "meals", "lunch", "dinner", "breakfast",
				"snack", "snacks", "restaurant", "restaurants",
				"groceries", "grocery", "coffee", "tea", "drink", "drinks",
			},
			Limit: rupees(10000),
		},
		{
			Key: "transport",
			Synonyms: []string{
				"travel", "taxi", "cab", "uber", "ola", "bus", "train",
				"metro", "ride", "rides", "petrol", "diesel", "fuel", "commute",
			},
			Limit:     rupees(4000),
			WarnRatio: 0.75,
		},
		{
			Key: "entertainment",
			Synonyms: []string{
				"movie", "movies", "netflix", "prime", "hotstar", "ott",
				"show", "shows", "concert", "gaming", "game", "games", "fun",
			},
			Limit: rupees(3000),
		},
		{
			Key: "shopping",
			Synonyms: []string{
				"amazon", "mall", "purchase", "purchases", "retail",
				"clothes", "clothing", "apparel",
			},
		},
		{
			Key: "utilities",
			Synonyms: []string{
				"utility", "electricity", "power", "water", "gas",
				"internet", "wifi", "broadband", "phone", "mobile",
				"recharge", "bill", "bills",
			},
			Limit: rupees(5000),
		},
		{
			Key: "health",
			Synonyms: []string{
				"doctor", "hospital", "medical", "medicine", "medicines",
				"pharmacy", "clinic", "fitness", "gym",
			},
		},
		{
			Key: "education",
			Synonyms: []string{
				"study", "studies", "course", "courses", "tuition",
				"class", "classes", "training", "book", "books",
			},
		},
		{
			Key: "rent",
			Synonyms: []string{
				"renting", "lease", "housing", "house", "apartment", "flat",
			},
		},
		{
			Key: "savings",
			Synonyms: []string{
				"investment", "invest", "investing", "sip",
				"mutual fund", "fixed deposit",
			},
		},
		{
			Key:      "personal",
			Synonyms: []string{"care", "salon", "beauty", "spa", "grooming"},
		},
		{
			Key:      "gifts",
			Synonyms: []string{"gift", "present", "presents"},
		},
		{
			Key:      "charity",
			Synonyms: []string{"donation", "donations"},
		},
		{
			Key:      "insurance",
			Synonyms: []string{"premium", "policy"},
		},
		{
			Key:      "fees",
			Synonyms: []string{"fee", "subscription", "subscriptions"},
		},
	})
	if err != nil {
		// The built-in table is static; a failure here is a programming error.
		panic(err)
	}
	return c
}
