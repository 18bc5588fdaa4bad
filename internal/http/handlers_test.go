package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voxpense/internal/catalog"
	"voxpense/internal/engine"
	"voxpense/internal/ledger/memory"
	"voxpense/internal/log"
)

var testNow = time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	eng := engine.New(memory.New(), catalog.Default(), logger,
		engine.WithClock(func() time.Time { return testNow }))
	s := NewServer(":0", eng, logger)
	t.Cleanup(func() { s.limiter.stop() })
	return s
}

func doJSON(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestVoiceCommand(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"Add 500 to food"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp engine.Response
	decode(t, rec, &resp)
	if !resp.Success {
		t.Fatalf("command failed: %+v", resp)
	}
	if !strings.Contains(resp.Reply, "food") {
		t.Errorf("reply %q", resp.Reply)
	}
	if resp.Dashboard == nil || resp.Dashboard.TodayCents != 50000 {
		t.Errorf("dashboard missing or stale: %+v", resp.Dashboard)
	}
}

func TestVoiceCommandRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/voice-command", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank command: status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/voice-command", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: status = %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %q", allow)
	}
}

func TestCreateExpense(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/expenses",
		`{"amount":120.50,"category":"food","date":"2026-08-25","description":"team lunch"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp engine.Response
	decode(t, rec, &resp)
	if !resp.Success || !strings.Contains(resp.Reply, "₹120.50") {
		t.Errorf("reply %q", resp.Reply)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", `{"amount":"abc","category":"food"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad amount: status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", `{"amount":10,"category":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing category: status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", `{"amount":10,"category":"food","date":"25-08-2026"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/expenses", `{"amount":10,"category":"doesnotexist"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown category: status = %d", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"Add 500 to food"}`)

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap struct {
		TodayCents int64 `json:"today_cents"`
		Daily      []any `json:"daily"`
		Monthly    []any `json:"monthly"`
	}
	decode(t, rec, &snap)
	if snap.TodayCents != 50000 {
		t.Errorf("today = %d", snap.TodayCents)
	}
	if len(snap.Daily) != 7 || len(snap.Monthly) != 6 {
		t.Errorf("series lengths = %d/%d, want 7/6", len(snap.Daily), len(snap.Monthly))
	}
}

func TestSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"Add 500 to food"}`)

	rec := doJSON(t, s, http.MethodGet, "/api/summary?period=month", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp engine.Response
	decode(t, rec, &resp)
	if !strings.Contains(resp.Reply, "August 2026") {
		t.Errorf("reply %q", resp.Reply)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/summary?period=year", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad period: status = %d", rec.Code)
	}
}

func TestRecentEndpoint(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"Add 100 to food"}`)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/recent?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Expenses []struct {
			ID     int64  `json:"id"`
			Amount string `json:"amount"`
		} `json:"expenses"`
	}
	decode(t, rec, &body)
	if len(body.Expenses) != 2 {
		t.Fatalf("expenses = %d, want 2", len(body.Expenses))
	}
	if body.Expenses[0].ID != 3 {
		t.Errorf("first entry id = %d, want the newest (3)", body.Expenses[0].ID)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/recent?limit=notanumber", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d", rec.Code)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Categories []struct {
			Key        string `json:"key"`
			LimitCents int64  `json:"limit_cents"`
		} `json:"categories"`
	}
	decode(t, rec, &body)
	if len(body.Categories) != catalog.Default().Len() {
		t.Fatalf("categories = %d", len(body.Categories))
	}
	if body.Categories[0].Key != "food" || body.Categories[0].LimitCents != 1000000 {
		t.Errorf("first category = %+v", body.Categories[0])
	}
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz: %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"Add 500 to food"}`)

	rec := doJSON(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "voice_commands_total 1") {
		t.Errorf("metrics body:\n%s", body)
	}
	if !strings.Contains(body, "http_requests_total") {
		t.Errorf("metrics body:\n%s", body)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got == "" {
		t.Error("missing X-Frame-Options")
	}
}

// The wire contract keeps confirmation fields at the top level and
// budget_alert as a ready-to-show string.
func TestVoiceCommandWireShape(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"Add 300 to xyz"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var confirm struct {
		NeedsConfirmation  bool   `json:"needs_confirmation"`
		ConfirmationPrompt string `json:"confirmation_prompt"`
		Options            []struct {
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"options"`
	}
	decode(t, rec, &confirm)
	if !confirm.NeedsConfirmation || confirm.ConfirmationPrompt == "" || len(confirm.Options) == 0 {
		t.Fatalf("confirmation shape: %s", rec.Body)
	}
	if strings.Contains(rec.Body.String(), `"confirmation"`) {
		t.Errorf("prompt and options must be top level:\n%s", rec.Body)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"Add 9000 to food"}`)
	var alerted struct {
		BudgetAlert string `json:"budget_alert"`
	}
	decode(t, rec, &alerted)
	if !strings.Contains(alerted.BudgetAlert, "90%") {
		t.Errorf("budget_alert = %q, want the 90%% warning text", alerted.BudgetAlert)
	}
}

// Payload keys stay snake_case all the way down; amounts are bare cents.
func TestDashboardJSONKeys(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"Add 500 to food"}`)

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", "")
	body := rec.Body.String()
	for _, want := range []string{
		`"weekly_summary_text"`, `"monthly_summary_text"`, `"budget_alerts"`,
		`"by_category"`, `"total_cents"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard JSON missing %s:\n%s", want, body)
		}
	}
	if strings.Contains(body, `"Cents"`) {
		t.Errorf("dashboard JSON leaks Go-cased keys:\n%s", body)
	}
}

// Failed commands answer without a dashboard attached.
func TestVoiceCommandFailureOmitsDashboard(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/voice-command", `{"command":"sing me a song"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp engine.Response
	decode(t, rec, &resp)
	if resp.Success {
		t.Fatal("nonsense command succeeded")
	}
	if resp.Dashboard != nil || strings.Contains(rec.Body.String(), `"dashboard"`) {
		t.Errorf("failure reply carries a dashboard:\n%s", rec.Body)
	}
}
