// Package storage is the SQLite persistence layer for the expense
// ledger. It implements ledger.Store plus the backup bookkeeping the
// export worker needs.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"voxpense/internal/core"
	"voxpense/internal/ledger"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository opens (creating the parent directory if needed) and
// migrates the database at dbPath.
func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Append(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount_cents, category, date, time, description)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Amount.Cents, e.Category, e.Date.String(), e.TimeOfDay, e.Description)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return e, nil
}

// DeleteLast removes the entry that sorts last by date, time and ID and
// returns it. ledger.ErrEmptyLedger when the table is empty.
func (r *Repository) DeleteLast(ctx context.Context) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, amount_cents, category, date, time, description
		 FROM expenses ORDER BY date DESC, time DESC, id DESC LIMIT 1`)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return core.Expense{}, ledger.ErrEmptyLedger
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("select last expense: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, e.ID); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense %d: %w", e.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit delete: %w", err)
	}
	return e, nil
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, category, date, time, description
		 FROM expenses ORDER BY date DESC, time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) TotalBetween(ctx context.Context, from, to core.Date) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE date BETWEEN ? AND ?`,
		from.String(), to.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("query total: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *Repository) CategoryTotals(ctx context.Context, from, to core.Date) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) FROM expenses
		 WHERE date BETWEEN ? AND ?
		 GROUP BY category ORDER BY SUM(amount_cents) DESC, category ASC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (r *Repository) DailyTotals(ctx context.Context, from, to core.Date) ([]core.DayTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, SUM(amount_cents) FROM expenses
		 WHERE date BETWEEN ? AND ?
		 GROUP BY date ORDER BY date ASC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var out []core.DayTotal
	for rows.Next() {
		var dt core.DayTotal
		if err := rows.Scan(&dt.Date, &dt.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}

func (r *Repository) MonthlyTotals(ctx context.Context, months int, now core.Date) ([]core.MonthTotal, error) {
	first := now.Time.AddDate(0, -(months - 1), -(now.Day() - 1))
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(date, 1, 7) AS month, SUM(amount_cents) FROM expenses
		 WHERE substr(date, 1, 7) BETWEEN ? AND ?
		 GROUP BY month ORDER BY month ASC`,
		first.Format("2006-01"), now.Time.Format("2006-01"))
	if err != nil {
		return nil, fmt.Errorf("query monthly totals: %w", err)
	}
	defer rows.Close()

	var out []core.MonthTotal
	for rows.Next() {
		var mt core.MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

// PendingBackup returns up to limit expenses that have not been
// exported yet, oldest first.
func (r *Repository) PendingBackup(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, category, date, time, description
		 FROM expenses WHERE backed_up = 0
		 ORDER BY date ASC, time ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending backup: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkBackedUp flags the given expenses as exported.
func (r *Repository) MarkBackedUp(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark backed up: %w", err)
	}
	defer tx.Rollback()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE expenses SET backed_up = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("mark expense %d backed up: %w", id, err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
	)
	if err := row.Scan(&e.ID, &e.Amount.Cents, &e.Category, &dateStr, &e.TimeOfDay, &e.Description); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	e.Date = d
	return e, nil
}
