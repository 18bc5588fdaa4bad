package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single ledger entry. ID is assigned by the store on
	// append and never changes afterwards.
	Expense struct {
		ID          int64
		Amount      Money
		Category    string
		Date        Date
		TimeOfDay   string // "15:04:05"
		Description string
	}

	// CategoryTotal is an amount aggregated by category key.
	CategoryTotal struct {
		Category string `json:"category"`
		Total    Money  `json:"total_cents"`
	}

	// DayTotal is an amount aggregated by calendar day.
	DayTotal struct {
		Date  string `json:"date"` // "2006-01-02"
		Total Money  `json:"total_cents"`
	}

	// MonthTotal is an amount aggregated by calendar month.
	MonthTotal struct {
		Month string `json:"month"` // "2006-01"
		Total Money  `json:"total_cents"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time of day")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today truncates now to a calendar date.
func Today(now time.Time) Date {
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the date in "2006-01-02" form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.TimeOfDay != "" {
		if _, err := time.Parse("15:04:05", e.TimeOfDay); err != nil {
			return ErrInvalidTime
		}
	}
	if len(e.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

// After reports whether e was inserted after other under the ledger
// ordering (date, time of day, id). Backdated entries therefore sort
// before entries stamped today even when appended later.
func (e Expense) After(other Expense) bool {
	if !e.Date.Equal(other.Date.Time) {
		return e.Date.Time.After(other.Date.Time)
	}
	if e.TimeOfDay != other.TimeOfDay {
		return e.TimeOfDay > other.TimeOfDay
	}
	return e.ID > other.ID
}
