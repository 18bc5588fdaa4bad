package voice

import (
	"errors"
	"testing"

	"voxpense/internal/catalog"
	"voxpense/internal/core"
)

func resolveText(t *testing.T, transcript string) (Command, *Confirmation, error) {
	t.Helper()
	return Resolve(Parse(Normalize(transcript, testNow)), catalog.Default())
}

func TestResolveAddSingleCandidate(t *testing.T) {
	cmd, conf, err := resolveText(t, "Add 500 to food")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conf != nil {
		t.Fatalf("unexpected confirmation: %+v", conf)
	}
	if cmd.Kind != KindAdd || cmd.Category != "food" || cmd.AmountCents != 50000 {
		t.Errorf("cmd = %+v", cmd)
	}
}

func TestResolveAddPrefixFragment(t *testing.T) {
	cmd, conf, err := resolveText(t, "Add 200 to ent")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conf != nil {
		t.Fatalf("\"ent\" should resolve directly, got confirmation %+v", conf)
	}
	if cmd.Category != "entertainment" {
		t.Errorf("category = %q, want entertainment", cmd.Category)
	}
}

func TestResolveAddNoMatchOffersAllCategories(t *testing.T) {
	_, conf, err := resolveText(t, "Add 300 to xyz")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conf == nil {
		t.Fatal("expected confirmation")
	}
	if len(conf.Options) != catalog.Default().Len() {
		t.Fatalf("options = %d, want every catalog category", len(conf.Options))
	}
	if conf.Options[0].Value != "Add 300 to food" {
		t.Errorf("option value = %q, want literal resubmission transcript", conf.Options[0].Value)
	}
}

// The option value must survive a round trip: resubmitting it verbatim
// has to resolve with no further confirmation.
func TestResolveConfirmationRoundTrip(t *testing.T) {
	_, conf, err := resolveText(t, "Add 300 to xyz")
	if err != nil || conf == nil {
		t.Fatalf("setup: conf=%v err=%v", conf, err)
	}
	for _, opt := range conf.Options {
		cmd, conf2, err := resolveText(t, opt.Value)
		if err != nil {
			t.Fatalf("resubmit %q: %v", opt.Value, err)
		}
		if conf2 != nil {
			t.Fatalf("resubmit %q asked for confirmation again", opt.Value)
		}
		if cmd.Category != opt.Label {
			t.Errorf("resubmit %q resolved to %q, want %q", opt.Value, cmd.Category, opt.Label)
		}
		if cmd.AmountCents != 30000 {
			t.Errorf("resubmit %q amount = %d, want 30000", opt.Value, cmd.AmountCents)
		}
	}
}

func TestResolveFractionalAmountRoundTrip(t *testing.T) {
	_, conf, err := resolveText(t, "Add 12.50 to xyz")
	if err != nil || conf == nil {
		t.Fatalf("setup: conf=%v err=%v", conf, err)
	}
	cmd, conf2, err := resolveText(t, conf.Options[0].Value)
	if err != nil || conf2 != nil {
		t.Fatalf("resubmit: cmd=%+v conf=%v err=%v", cmd, conf2, err)
	}
	if cmd.AmountCents != 1250 {
		t.Errorf("amount = %d, want 1250", cmd.AmountCents)
	}
}

func TestResolveInvalidAmount(t *testing.T) {
	for _, input := range []string{"add 0 to food", "add -5 to food"} {
		_, _, err := resolveText(t, input)
		if !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidAmount", input, err)
		}
	}
}

func TestResolveCarriesDate(t *testing.T) {
	cmd, _, err := resolveText(t, "add 100 to food yesterday")
	if err != nil {
		t.Fatal(err)
	}
	if !cmd.HasDate || cmd.Date.String() != "2026-08-25" {
		t.Errorf("date = %v hasDate=%v", cmd.Date, cmd.HasDate)
	}
}

func TestResolveReadOnlyIntents(t *testing.T) {
	cmd, _, err := resolveText(t, "how much did I spend this week")
	if err != nil || cmd.Kind != KindQuery || cmd.Period != "week" {
		t.Errorf("query: cmd=%+v err=%v", cmd, err)
	}
	cmd, _, err = resolveText(t, "show last 7 expenses")
	if err != nil || cmd.Kind != KindShowRecent || cmd.Count != 7 {
		t.Errorf("show recent: cmd=%+v err=%v", cmd, err)
	}
	cmd, _, err = resolveText(t, "delete last expense")
	if err != nil || cmd.Kind != KindDeleteLast {
		t.Errorf("delete: cmd=%+v err=%v", cmd, err)
	}
}
