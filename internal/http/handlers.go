package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"voxpense/internal/core"
	"voxpense/internal/log"
)

const (
	maxBodyBytes = 4 << 10

	defaultDailyDays    = 7
	maxDailyDays        = 90
	defaultMonthlySpan  = 6
	maxMonthlySpan      = 24
	maxRecentQueryLimit = 50
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.ErrorContext(r.Context(), "encode response", log.FieldError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, errorBody{Error: msg})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

type voiceCommandRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleVoiceCommand(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req voiceCommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		s.writeError(w, r, http.StatusBadRequest, "command is required")
		return
	}

	atomic.AddInt64(&s.metrics.commands, 1)
	resp, err := s.engine.Handle(r.Context(), req.Command)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "command failed", log.FieldError, err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

type createExpenseRequest struct {
	Amount      json.Number `json:"amount"` // rupees, decimal
	Category    string      `json:"category"`
	Date        string      `json:"date,omitempty"` // YYYY-MM-DD
	Description string      `json:"description,omitempty"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req createExpenseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "amount must be a positive number")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		s.writeError(w, r, http.StatusBadRequest, "category is required")
		return
	}

	var date core.Date
	if req.Date != "" {
		date, err = core.ParseDate(req.Date)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	resp, err := s.engine.AddExpense(r.Context(), cents, req.Category, date, req.Description)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "manual add failed", log.FieldError, err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	status := http.StatusCreated
	if !resp.Success {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, r, status, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "dashboard failed", log.FieldError, err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}
	if period != "week" && period != "month" {
		s.writeError(w, r, http.StatusBadRequest, "period must be week or month")
		return
	}
	resp, err := s.engine.Summary(r.Context(), period)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "summary failed", log.FieldError, err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	limit := s.engine.RecentLimit()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = clamp(n, 1, maxRecentQueryLimit)
	}

	expenses, err := s.engine.Store().Recent(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "recent failed", log.FieldError, err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	type entry struct {
		ID       int64  `json:"id"`
		Cents    int64  `json:"cents"`
		Amount   string `json:"amount"`
		Category string `json:"category"`
		Date     string `json:"date"`
		Time     string `json:"time,omitempty"`
		Note     string `json:"note,omitempty"`
	}
	out := make([]entry, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, entry{
			ID:       e.ID,
			Cents:    e.Amount.Cents,
			Amount:   core.FormatRupees(e.Amount.Cents),
			Category: e.Category,
			Date:     e.Date.String(),
			Time:     e.TimeOfDay,
			Note:     e.Description,
		})
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"expenses": out})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	type category struct {
		Key        string   `json:"key"`
		Synonyms   []string `json:"synonyms"`
		LimitCents int64    `json:"limit_cents,omitempty"`
		WarnRatio  float64  `json:"warn_ratio,omitempty"`
	}
	entries := s.engine.Catalog().Entries()
	out := make([]category, 0, len(entries))
	for _, e := range entries {
		c := category{Key: e.Key, Synonyms: e.Synonyms}
		if e.HasLimit() {
			c.LimitCents = e.Limit.Cents
			c.WarnRatio = e.WarnRatio
		}
		out = append(out, c)
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	days := defaultDailyDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "days must be a number")
			return
		}
		days = clamp(n, 1, maxDailyDays)
	}

	today := core.Today(time.Now())
	from := today.AddDays(-(days - 1))
	totals, err := s.engine.Store().DailyTotals(r.Context(), from, today)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "daily totals failed", log.FieldError, err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	byDay := make(map[string]int64, len(totals))
	for _, t := range totals {
		byDay[t.Date] = t.Total.Cents
	}
	type point struct {
		Date  string `json:"date"`
		Cents int64  `json:"cents"`
	}
	out := make([]point, 0, days)
	for i := 0; i < days; i++ {
		day := from.AddDays(i).String()
		out = append(out, point{Date: day, Cents: byDay[day]})
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"daily": out})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	months := defaultMonthlySpan
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "months must be a number")
			return
		}
		months = clamp(n, 1, maxMonthlySpan)
	}

	now := time.Now()
	totals, err := s.engine.Store().MonthlyTotals(r.Context(), months, core.Today(now))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "monthly totals failed", log.FieldError, err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	byMonth := make(map[string]int64, len(totals))
	for _, t := range totals {
		byMonth[t.Month] = t.Total.Cents
	}
	type point struct {
		Month string `json:"month"`
		Cents int64  `json:"cents"`
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	out := make([]point, 0, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0).Format("2006-01")
		out = append(out, point{Month: m, Cents: byMonth[m]})
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"monthly": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.Store().Recent(r.Context(), 1); err != nil {
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "http_requests_total %d\n", atomic.LoadInt64(&s.metrics.requests))
	fmt.Fprintf(w, "http_rate_limit_hits_total %d\n", atomic.LoadInt64(&s.metrics.rateLimitHits))
	fmt.Fprintf(w, "voice_commands_total %d\n", atomic.LoadInt64(&s.metrics.commands))
	fmt.Fprintf(w, "http_server_errors_total %d\n", atomic.LoadInt64(&s.metrics.serverErrors))
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
