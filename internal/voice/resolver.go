package voice

import (
	"fmt"
	"strconv"

	"voxpense/internal/catalog"
	"voxpense/internal/core"
)

// Option is one selectable answer in a confirmation prompt. Value is a
// complete transcript; the client resubmits it verbatim, which is what
// keeps confirmation stateless on the server.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Confirmation asks the user to pick a category when the fragment
// resolved to zero or several candidates.
type Confirmation struct {
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Command is a fully resolved, validated intent ready for execution.
type Command struct {
	Kind        Kind
	AmountCents int64
	Category    string // canonical catalog key
	Date        core.Date
	HasDate     bool
	Period      string // query period: today | week | month
	Count       int    // requested recent-entry count, 0 when unspecified
}

// Resolve validates an intent's slots against the catalog. Exactly one
// of the three results is non-zero: a Command to execute, a
// Confirmation to send back, or an error.
func Resolve(in Intent, cat *catalog.Catalog) (Command, *Confirmation, error) {
	switch in.Kind {
	case KindAdd:
		return resolveAdd(in, cat)
	case KindDeleteLast:
		return Command{Kind: KindDeleteLast}, nil, nil
	case KindQuery:
		return Command{Kind: KindQuery, Period: in.Slots[SlotPeriod]}, nil, nil
	case KindShowRecent:
		cmd := Command{Kind: KindShowRecent}
		if raw, ok := in.Slots[SlotCount]; ok {
			cmd.Count, _ = strconv.Atoi(raw)
		}
		return cmd, nil, nil
	case KindWeeklySummary:
		return Command{Kind: KindWeeklySummary}, nil, nil
	case KindMonthlySummary:
		return Command{Kind: KindMonthlySummary}, nil, nil
	default:
		return Command{}, nil, fmt.Errorf("resolve: unknown intent")
	}
}

func resolveAdd(in Intent, cat *catalog.Catalog) (Command, *Confirmation, error) {
	cents, err := strconv.ParseInt(in.Slots[SlotAmount], 10, 64)
	if err != nil || cents <= 0 {
		return Command{}, nil, fmt.Errorf("resolve amount: %w", core.ErrInvalidAmount)
	}

	cmd := Command{Kind: KindAdd, AmountCents: cents}
	if raw, ok := in.Slots[SlotDate]; ok {
		d, err := core.ParseDate(raw)
		if err != nil {
			return Command{}, nil, fmt.Errorf("resolve date: %w", core.ErrInvalidDate)
		}
		cmd.Date = d
		cmd.HasDate = true
	}

	fragment := in.Slots[SlotCategory]
	candidates := cat.Match(fragment)
	switch len(candidates) {
	case 1:
		cmd.Category = candidates[0]
		return cmd, nil, nil
	case 0:
		return Command{}, confirmationFor(
			fmt.Sprintf("I couldn't find a category matching %q. Which one did you mean?", fragment),
			cat.Keys(), cents), nil
	default:
		return Command{}, confirmationFor(
			fmt.Sprintf("%q could mean a few things. Which one did you mean?", fragment),
			candidates, cents), nil
	}
}

// confirmationFor builds the prompt whose option values are literal
// resubmission transcripts like "Add 500 to entertainment".
func confirmationFor(prompt string, keys []string, cents int64) *Confirmation {
	opts := make([]Option, 0, len(keys))
	for _, key := range keys {
		opts = append(opts, Option{
			Label: key,
			Value: fmt.Sprintf("Add %s to %s", core.FormatAmount(cents), key),
		})
	}
	return &Confirmation{Prompt: prompt, Options: opts}
}
