// Package engine executes voice commands end to end: normalize, parse,
// resolve, apply to the ledger, then reassemble the dashboard. One
// Handle call is one command; confirmation round-trips are stateless
// because the options the client gets back are complete transcripts.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"voxpense/internal/budget"
	"voxpense/internal/cache"
	"voxpense/internal/catalog"
	"voxpense/internal/core"
	"voxpense/internal/dashboard"
	"voxpense/internal/events"
	"voxpense/internal/ledger"
	"voxpense/internal/log"
	"voxpense/internal/summary"
	"voxpense/internal/voice"
)

const (
	minRecentLimit = 1
	maxRecentLimit = 50

	snapshotCacheSize = 4
	snapshotCacheTTL  = 30 * time.Second
	snapshotCacheKey  = "dashboard"
)

// Error codes surfaced to the client.
const (
	ErrorCodeValidation  = "validation_error"
	ErrorCodeParse       = "parse_error"
	ErrorCodeEmptyLedger = "empty_ledger"
	ErrorCodeInternal    = "internal_error"
)

// Publisher is the slice of the events client the engine needs.
// Publish failures are logged and swallowed; the ledger write already
// committed.
type Publisher interface {
	Publish(ctx context.Context, event *events.LedgerEvent) error
}

// Response is the full reply to one command. The dashboard rides along
// on successful mutations and queries only; failures carry just the
// reply and the error code.
type Response struct {
	Reply   string `json:"reply"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	NeedsConfirmation  bool           `json:"needs_confirmation,omitempty"`
	ConfirmationPrompt string         `json:"confirmation_prompt,omitempty"`
	Options            []voice.Option `json:"options,omitempty"`

	BudgetAlert string              `json:"budget_alert,omitempty"`
	Dashboard   *dashboard.Snapshot `json:"dashboard,omitempty"`
}

// Engine wires the command pipeline together. The mutex serializes
// mutations and snapshot fills, so a reply never shows a dashboard
// older than the entry it reports and a concurrent read can never
// repopulate the cache with pre-mutation state.
type Engine struct {
	mu sync.Mutex

	store     ledger.Store
	catalog   *catalog.Catalog
	evaluator *budget.Evaluator
	assembler *dashboard.Assembler
	publisher Publisher
	snapshots *cache.LRU[dashboard.Snapshot]
	logger    *log.Logger

	recentLimit int
	now         func() time.Time
}

type Option func(*Engine)

// WithClock fixes the engine's clock; tests use it to pin dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPublisher attaches a ledger-event publisher.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithRecentLimit sets the default entry count for recent queries.
func WithRecentLimit(n int) Option {
	return func(e *Engine) { e.recentLimit = n }
}

func New(store ledger.Store, cat *catalog.Catalog, logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		catalog:     cat,
		evaluator:   budget.NewEvaluator(cat),
		logger:      logger.WithComponent(log.ComponentEngine),
		snapshots:   cache.NewLRU[dashboard.Snapshot](snapshotCacheSize, snapshotCacheTTL),
		recentLimit: 5,
		now:         time.Now,
	}
	e.assembler = dashboard.NewAssembler(store, e.evaluator)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle runs one transcript through the pipeline and always returns a
// renderable Response; the error return is reserved for storage
// failures the client can do nothing about.
func (e *Engine) Handle(ctx context.Context, transcript string) (Response, error) {
	n := voice.Normalize(transcript, e.now())
	intent := voice.Parse(n)

	e.logger.InfoContext(ctx, "command parsed",
		log.FieldTranscript, n.Text,
		log.FieldIntent, intent.Kind.String())

	if intent.Kind == voice.KindUnknown {
		return Response{
			Reply:   intent.Reason,
			Success: false,
			Error:   ErrorCodeParse,
		}, nil
	}

	cmd, confirmation, err := voice.Resolve(intent, e.catalog)
	if err != nil {
		return Response{
			Reply:   validationReply(err),
			Success: false,
			Error:   ErrorCodeValidation,
		}, nil
	}
	if confirmation != nil {
		return Response{
			Reply:              confirmation.Prompt,
			Success:            false,
			NeedsConfirmation:  true,
			ConfirmationPrompt: confirmation.Prompt,
			Options:            confirmation.Options,
		}, nil
	}

	return e.execute(ctx, cmd)
}

func (e *Engine) execute(ctx context.Context, cmd voice.Command) (Response, error) {
	switch cmd.Kind {
	case voice.KindAdd:
		return e.executeAdd(ctx, cmd)
	case voice.KindDeleteLast:
		return e.executeDeleteLast(ctx)
	case voice.KindQuery:
		return e.executeQuery(ctx, cmd.Period)
	case voice.KindShowRecent:
		return e.executeShowRecent(ctx, cmd.Count)
	case voice.KindWeeklySummary:
		return e.executeWeekly(ctx)
	case voice.KindMonthlySummary:
		return e.executeMonthly(ctx)
	default:
		return Response{}, fmt.Errorf("execute: unhandled command kind %v", cmd.Kind)
	}
}

func (e *Engine) executeAdd(ctx context.Context, cmd voice.Command) (Response, error) {
	return e.addEntry(ctx, cmd, "")
}

func (e *Engine) addEntry(ctx context.Context, cmd voice.Command, description string) (Response, error) {
	now := e.now()
	date := core.Today(now)
	if cmd.HasDate {
		date = cmd.Date
	}
	expense := core.Expense{
		Amount:      core.Money{Cents: cmd.AmountCents},
		Category:    cmd.Category,
		Date:        date,
		TimeOfDay:   now.UTC().Format("15:04:05"),
		Description: description,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stored, err := e.store.Append(ctx, expense)
	if err != nil {
		if isValidation(err) {
			return Response{
				Reply:   validationReply(err),
				Success: false,
				Error:   ErrorCodeValidation,
			}, nil
		}
		return Response{}, fmt.Errorf("append expense: %w", err)
	}
	e.snapshots.Flush()
	e.publish(ctx, events.NewLedgerEvent(events.KindExpenseCreated, stored.ID))

	resp := Response{
		Reply: fmt.Sprintf("Added %s to %s. Entry number %d.",
			core.FormatRupees(stored.Amount.Cents), stored.Category, stored.ID),
		Success: true,
	}
	if alert := e.alertFor(ctx, stored.Category, now); alert != nil {
		resp.BudgetAlert = alert.Message
	}

	e.logger.InfoContext(ctx, "expense added",
		log.FieldExpenseID, stored.ID,
		log.FieldCategory, stored.Category,
		log.FieldAmountCents, stored.Amount.Cents)

	return e.withDashboardLocked(ctx, resp), nil
}

// alertFor recomputes the category's month-to-date total after the add.
func (e *Engine) alertFor(ctx context.Context, category string, now time.Time) *budget.Alert {
	monthStart := core.NewDate(now.Year(), int(now.Month()), 1)
	totals, err := e.store.CategoryTotals(ctx, monthStart, core.Today(now))
	if err != nil {
		e.logger.WarnContext(ctx, "budget check skipped", log.FieldError, err.Error())
		return nil
	}
	for _, t := range totals {
		if t.Category == category {
			return e.evaluator.AlertFor(category, t.Total)
		}
	}
	return nil
}

func (e *Engine) executeDeleteLast(ctx context.Context) (Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deleted, err := e.store.DeleteLast(ctx)
	if errors.Is(err, ledger.ErrEmptyLedger) {
		return Response{
			Reply:   "There's nothing to delete yet.",
			Success: false,
			Error:   ErrorCodeEmptyLedger,
		}, nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("delete last expense: %w", err)
	}
	e.snapshots.Flush()
	e.publish(ctx, events.NewLedgerEvent(events.KindExpenseDeleted, deleted.ID))

	e.logger.InfoContext(ctx, "expense deleted",
		log.FieldExpenseID, deleted.ID,
		log.FieldCategory, deleted.Category)

	return e.withDashboardLocked(ctx, Response{
		Reply: fmt.Sprintf("Deleted %s from %s.",
			core.FormatRupees(deleted.Amount.Cents), deleted.Category),
		Success: true,
	}), nil
}

func (e *Engine) executeQuery(ctx context.Context, period string) (Response, error) {
	today := core.Today(e.now())
	var (
		from  core.Date
		label string
	)
	switch period {
	case "week":
		from, label = today.AddDays(-6), "this week"
	case "month":
		from, label = core.NewDate(today.Year(), int(today.Month()), 1), "this month"
	default:
		from, label = today, "today"
	}

	total, err := e.store.TotalBetween(ctx, from, today)
	if err != nil {
		return Response{}, fmt.Errorf("query total: %w", err)
	}
	reply := fmt.Sprintf("You've spent %s %s.", core.FormatRupees(total.Cents), label)
	if total.Cents == 0 {
		reply = fmt.Sprintf("No spending recorded %s.", label)
	}
	return e.withDashboard(ctx, Response{Reply: reply, Success: true}), nil
}

func (e *Engine) executeShowRecent(ctx context.Context, count int) (Response, error) {
	limit := e.recentLimit
	if count != 0 {
		limit = count
	}
	if limit < minRecentLimit {
		limit = minRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	expenses, err := e.store.Recent(ctx, limit)
	if err != nil {
		return Response{}, fmt.Errorf("recent expenses: %w", err)
	}
	if len(expenses) == 0 {
		return e.withDashboard(ctx, Response{
			Reply:   "No expenses recorded yet.",
			Success: true,
		}), nil
	}

	lines := make([]string, 0, len(expenses)+1)
	lines = append(lines, fmt.Sprintf("Your last %d expenses:", len(expenses)))
	for i, exp := range expenses {
		lines = append(lines, fmt.Sprintf("%d. %s on %s (%s)",
			i+1, core.FormatRupees(exp.Amount.Cents), exp.Category, exp.Date))
	}
	return e.withDashboard(ctx, Response{
		Reply:   strings.Join(lines, "\n"),
		Success: true,
	}), nil
}

func (e *Engine) executeWeekly(ctx context.Context) (Response, error) {
	today := core.Today(e.now())
	from := today.AddDays(-6)

	total, err := e.store.TotalBetween(ctx, from, today)
	if err != nil {
		return Response{}, fmt.Errorf("weekly total: %w", err)
	}
	byCategory, err := e.store.CategoryTotals(ctx, from, today)
	if err != nil {
		return Response{}, fmt.Errorf("weekly category totals: %w", err)
	}
	return e.withDashboard(ctx, Response{
		Reply:   summary.Weekly(total, byCategory, from, today),
		Success: true,
	}), nil
}

func (e *Engine) executeMonthly(ctx context.Context) (Response, error) {
	now := e.now()
	today := core.Today(now)
	monthStart := core.NewDate(now.Year(), int(now.Month()), 1)

	total, err := e.store.TotalBetween(ctx, monthStart, today)
	if err != nil {
		return Response{}, fmt.Errorf("monthly total: %w", err)
	}
	byCategory, err := e.store.CategoryTotals(ctx, monthStart, today)
	if err != nil {
		return Response{}, fmt.Errorf("monthly category totals: %w", err)
	}
	statuses := e.evaluator.Statuses(byCategory)
	return e.withDashboard(ctx, Response{
		Reply:   summary.Monthly(total, byCategory, statuses, now.Format("January 2006")),
		Success: true,
	}), nil
}

// Summary renders the weekly or monthly summary without going through
// a transcript; the JSON API calls it directly.
func (e *Engine) Summary(ctx context.Context, period string) (Response, error) {
	if period == "month" {
		return e.executeMonthly(ctx)
	}
	return e.executeWeekly(ctx)
}

// AddExpense records an entry that arrived through the manual JSON API
// rather than a transcript. The category must be a canonical key.
func (e *Engine) AddExpense(ctx context.Context, cents int64, category string, date core.Date, description string) (Response, error) {
	key := strings.ToLower(strings.TrimSpace(category))
	if _, ok := e.catalog.Lookup(key); !ok {
		return Response{
			Reply:   fmt.Sprintf("Unknown category %q.", category),
			Success: false,
			Error:   ErrorCodeValidation,
		}, nil
	}
	cmd := voice.Command{
		Kind:        voice.KindAdd,
		AmountCents: cents,
		Category:    key,
	}
	if !date.IsZero() {
		cmd.Date = date
		cmd.HasDate = true
	}
	return e.addEntry(ctx, cmd, strings.TrimSpace(description))
}

// Snapshot returns the current dashboard, served from the TTL cache
// between mutations. It takes the engine mutex so an assembly can never
// straddle a mutation and repopulate the cache with a stale snapshot.
func (e *Engine) Snapshot(ctx context.Context) (dashboard.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(ctx)
}

func (e *Engine) snapshotLocked(ctx context.Context) (dashboard.Snapshot, error) {
	if snap, ok := e.snapshots.Get(snapshotCacheKey); ok {
		return snap, nil
	}
	snap, err := e.assembler.Assemble(ctx, e.now())
	if err != nil {
		return dashboard.Snapshot{}, err
	}
	e.snapshots.Set(snapshotCacheKey, snap)
	return snap, nil
}

// Catalog exposes the category catalog for the read-only API.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Store exposes the ledger reader for the read-only API.
func (e *Engine) Store() ledger.Store {
	return e.store
}

// RecentLimit is the default count for recent-expense queries.
func (e *Engine) RecentLimit() int {
	return e.recentLimit
}

func (e *Engine) withDashboard(ctx context.Context, resp Response) Response {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "dashboard assembly failed", log.FieldError, err.Error())
		return resp
	}
	resp.Dashboard = &snap
	return resp
}

// withDashboardLocked is withDashboard for callers already holding the
// engine mutex; the snapshot must reflect the mutation just applied.
func (e *Engine) withDashboardLocked(ctx context.Context, resp Response) Response {
	snap, err := e.snapshotLocked(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "dashboard assembly failed", log.FieldError, err.Error())
		return resp
	}
	resp.Dashboard = &snap
	return resp
}

func (e *Engine) publish(ctx context.Context, event *events.LedgerEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "event publish failed",
			log.FieldEventKind, event.Kind,
			log.FieldError, err.Error())
	}
}

func isValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidTime) ||
		errors.Is(err, core.ErrDescriptionLong)
}

func validationReply(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "That amount doesn't look right. Amounts must be greater than zero."
	case errors.Is(err, core.ErrInvalidDate):
		return "I couldn't make sense of that date."
	case errors.Is(err, core.ErrEmptyCategory):
		return "I couldn't tell which category that was for."
	case errors.Is(err, core.ErrDescriptionLong):
		return "That description is too long."
	default:
		return "That didn't look like a valid expense."
	}
}
